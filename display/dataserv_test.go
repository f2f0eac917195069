package attento_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	Md "github.com/maroda/attento/display"
	Ms "github.com/maroda/attento/server"
	Mt "github.com/maroda/attento/types"
)

// scriptDetector plays back a fixed detection and counts calls
type scriptDetector struct {
	Calls  int
	People [][]Mt.Keypoint
	Err    error
}

func (d *scriptDetector) Detect(_ []byte) ([][]Mt.Keypoint, error) {
	d.Calls++
	if d.Err != nil {
		return nil, d.Err
	}
	return d.People, nil
}

// stubSnaps serves one fixed image for every camera
type stubSnaps struct {
	Img []byte
	Err error
}

func (s *stubSnaps) Fetch(_ string, _ int) ([]byte, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Img, nil
}

// makeSleeper builds one detection with the head and shoulders
// arranged so the scorer reads sleeping
func makeSleeper() []Mt.Keypoint {
	kps := make([]Mt.Keypoint, Mt.KPMinCount)
	for i := range kps {
		kps[i] = Mt.Keypoint{Conf: 0.1}
	}
	kps[Mt.KPNose] = Mt.Keypoint{X: 100, Y: 130, Conf: 0.9}
	kps[Mt.KPLeftShoulder] = Mt.Keypoint{X: 60, Y: 100, Conf: 0.9}
	kps[Mt.KPRightShoulder] = Mt.Keypoint{X: 140, Y: 100, Conf: 0.9}
	kps[Mt.KPLeftHip] = Mt.Keypoint{X: 65, Y: 75, Conf: 0.9}
	kps[Mt.KPRightHip] = Mt.Keypoint{X: 135, Y: 75, Conf: 0.9}
	return kps
}

func makeTestRooms() []Ms.ConfigFile {
	return []Ms.ConfigFile{
		{ID: "room-a", Name: "Room A", Cameras: 1},
	}
}

// makeTestView wires a full View over stub collaborators
func makeTestView(t *testing.T, det Ms.PoseDetector, snaps Ms.SnapshotSource) *Md.View {
	t.Helper()
	m := Ms.NewMonitor(makeTestRooms(), det, snaps, nil)
	view, err := Md.NewView(m)
	if err != nil {
		t.Fatalf("could not build view: %v", err)
	}
	return view
}

func makeHealthyView(t *testing.T) *Md.View {
	t.Helper()
	det := &scriptDetector{People: [][]Mt.Keypoint{makeSleeper()}}
	return makeTestView(t, det, &stubSnaps{Img: []byte("png")})
}

func TestView_SetupMux(t *testing.T) {
	view := makeHealthyView(t)
	mux := view.SetupMux()

	t.Run("Websocket Endpoint answers", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		// websocket upgrade will fail in test, but check for the 400
		assertStatus(t, w.Code, http.StatusBadRequest)
	})

	t.Run("Metrics Endpoint answers", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/metrics", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assertStatus(t, w.Code, http.StatusOK)
	})

	t.Run("Version Endpoint answers with JSON", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/version", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assertStatus(t, w.Code, http.StatusOK)

		var resp map[string]string
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		assertError(t, err, nil)
		if _, ok := resp["version"]; !ok {
			t.Errorf("Field 'version' not found in response")
		}
	})
}

func TestView_FrameHandler(t *testing.T) {
	t.Run("Returns the full frame analysis", func(t *testing.T) {
		view := makeHealthyView(t)
		mux := view.SetupMux()

		r := httptest.NewRequest("GET", "/api/frame/room-a/1", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assertStatus(t, w.Code, http.StatusOK)

		var fr Mt.FrameResult
		err := json.Unmarshal(w.Body.Bytes(), &fr)
		assertError(t, err, nil)
		assertInt(t, fr.TotalPeople, 1)
		assertInt(t, fr.Summary[Mt.Sleeping], 1)
		assertInt(t, len(fr.PerPerson), 1)
	})

	t.Run("Unconfigured room is not found", func(t *testing.T) {
		det := &scriptDetector{}
		view := makeTestView(t, det, &stubSnaps{Img: []byte("png")})
		mux := view.SetupMux()

		r := httptest.NewRequest("GET", "/api/frame/room-z/1", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assertStatus(t, w.Code, http.StatusNotFound)

		var apiErr Md.APIError
		json.Unmarshal(w.Body.Bytes(), &apiErr)
		assertString(t, apiErr.Error, "not_found")

		// no analysis happens for an unknown room
		assertInt(t, det.Calls, 0)
	})

	t.Run("Missing snapshot is not found", func(t *testing.T) {
		view := makeTestView(t, &scriptDetector{}, &stubSnaps{Err: Ms.ErrSnapshotNotFound})
		mux := view.SetupMux()

		r := httptest.NewRequest("GET", "/api/frame/room-a/1", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assertStatus(t, w.Code, http.StatusNotFound)

		var apiErr Md.APIError
		json.Unmarshal(w.Body.Bytes(), &apiErr)
		assertString(t, apiErr.Error, "not_found")
	})

	t.Run("Dead detector is a bad gateway", func(t *testing.T) {
		det := &scriptDetector{Err: Ms.ErrDetectorUnavailable}
		view := makeTestView(t, det, &stubSnaps{Img: []byte("png")})
		mux := view.SetupMux()

		r := httptest.NewRequest("GET", "/api/frame/room-a/1", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assertStatus(t, w.Code, http.StatusBadGateway)

		var apiErr Md.APIError
		json.Unmarshal(w.Body.Bytes(), &apiErr)
		assertString(t, apiErr.Error, "detector_unavailable")
	})
}

func TestView_DataHandler(t *testing.T) {
	view := makeHealthyView(t)
	mux := view.SetupMux()

	r := httptest.NewRequest("GET", "/api/data/room-a/1", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assertStatus(t, w.Code, http.StatusOK)

	var resp map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assertError(t, err, nil)

	assertString(t, resp["room_id"].(string), "room-a")
	assertInt(t, int(resp["num_people"].(float64)), 1)
	assertInt(t, int(resp["avg_confidence"].(float64)), 97)
	assertInt(t, int(resp["attention_rate"].(float64)), 0)
}

func TestView_HistoryHandler(t *testing.T) {
	view := makeHealthyView(t)
	view.Monitor.AnalyzeRoom("room-a", 1)
	mux := view.SetupMux()

	r := httptest.NewRequest("GET", "/api/history/room-a", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assertStatus(t, w.Code, http.StatusOK)

	var records []Mt.HistoryRecord
	err := json.Unmarshal(w.Body.Bytes(), &records)
	assertError(t, err, nil)
	assertInt(t, len(records), 1)
	assertInt(t, records[0].TotalPeople, 1)
}

func TestView_ActivityHandler(t *testing.T) {
	view := makeHealthyView(t)
	view.Monitor.AnalyzeRoom("room-a", 1)
	mux := view.SetupMux()

	r := httptest.NewRequest("GET", "/api/activity/room-a", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assertStatus(t, w.Code, http.StatusOK)

	var entries []Mt.ActivityEntry
	err := json.Unmarshal(w.Body.Bytes(), &entries)
	assertError(t, err, nil)
	// sleeping warning plus low attention alert
	assertInt(t, len(entries), 2)
}

func TestView_AlertsHandler(t *testing.T) {
	view := makeHealthyView(t)
	view.Monitor.AnalyzeRoom("room-a", 1)
	mux := view.SetupMux()

	t.Run("Serves the whole sequence from zero", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/alerts", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assertStatus(t, w.Code, http.StatusOK)

		var resp struct {
			Alerts   []Mt.Alert `json:"alerts"`
			LatestID int64      `json:"latest_id"`
		}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		assertError(t, err, nil)
		assertInt(t, len(resp.Alerts), 2)
		assertInt64(t, resp.LatestID, 2)
	})

	t.Run("Cursor skips already-seen alerts", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/alerts?since=2", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assertStatus(t, w.Code, http.StatusOK)

		var resp struct {
			Alerts   []Mt.Alert `json:"alerts"`
			LatestID int64      `json:"latest_id"`
		}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		assertError(t, err, nil)
		assertInt(t, len(resp.Alerts), 0)
		assertInt64(t, resp.LatestID, 2)
	})
}

func TestView_ExportHandler(t *testing.T) {
	view := makeHealthyView(t)
	view.Monitor.AnalyzeRoom("room-a", 1)
	mux := view.SetupMux()

	r := httptest.NewRequest("GET", "/api/export/room-a", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assertStatus(t, w.Code, http.StatusOK)

	var export Ms.RoomExport
	err := json.Unmarshal(w.Body.Bytes(), &export)
	assertError(t, err, nil)
	assertString(t, export.RoomID, "room-a")
	assertInt(t, export.Aggregates.Frames, 1)
	assertInt(t, len(export.History), 1)
}

func TestView_RoomGuard(t *testing.T) {
	view := makeHealthyView(t)
	mux := view.SetupMux()

	paths := []string{
		"/api/data/room-z/1",
		"/api/history/room-z",
		"/api/activity/room-z",
		"/api/export/room-z",
	}
	for _, path := range paths {
		r := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: got status %d, want %d", path, w.Code, http.StatusNotFound)
		}
	}
}

// Test helpers

func assertString(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func assertInt64(t *testing.T, got, want int64) {
	t.Helper()
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func assertFloat(t *testing.T, got, want float64) {
	t.Helper()
	if got != want {
		t.Errorf("got %f, want %f", got, want)
	}
}

func assertStatus(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("got status %d, want %d", got, want)
	}
}

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if got != want {
		t.Errorf("got error %q, want %q", got, want)
	}
}
