package attento

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	Ms "github.com/maroda/attento/server"
	Mt "github.com/maroda/attento/types"
)

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket feed for the dashboard
// - Version for programmatic use
// - Room analysis, history, activity, alerts, export
func (v *View) SetupMux() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", v.Stats.Handler())
	r.HandleFunc("/ws", v.WebsocketHandler)
	r.HandleFunc("/api/version", v.VersionHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(v.StatsMiddleware)
	api.HandleFunc("/frame/{room}/{cam:[0-9]+}", v.FrameHandler)
	api.HandleFunc("/data/{room}/{cam:[0-9]+}", v.DataHandler)
	api.HandleFunc("/history/{room}", v.HistoryHandler)
	api.HandleFunc("/activity/{room}", v.ActivityHandler)
	api.HandleFunc("/alerts", v.AlertsHandler)
	api.HandleFunc("/export/{room}", v.ExportHandler)

	// Static files for the dashboard frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./web/")))

	return r
}

var Version = "dev"

func (v *View) VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": Version})
}

// APIError is the structured failure shape, never a stack trace
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeAnalysisErr distinguishes "nothing to analyze yet" from
// a processing failure, per the client contract
func writeAnalysisErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, Ms.ErrSnapshotNotFound):
		writeJSON(w, http.StatusNotFound, APIError{
			Error:   "not_found",
			Message: "no snapshot available for this camera",
		})
	case errors.Is(err, Ms.ErrDetectorUnavailable):
		writeJSON(w, http.StatusBadGateway, APIError{
			Error:   "detector_unavailable",
			Message: "pose detector did not answer",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, APIError{
			Error:   "processing_failure",
			Message: "analysis failed",
		})
	}
}

func camVars(r *http.Request) (string, int) {
	vars := mux.Vars(r)
	cam, _ := strconv.Atoi(vars["cam"])
	return vars["room"], cam
}

// guardRoom rejects rooms absent from the config before any
// snapshot or detector work happens
func (v *View) guardRoom(w http.ResponseWriter, room string) bool {
	if v.Monitor.KnownRoom(room) {
		return true
	}
	writeJSON(w, http.StatusNotFound, APIError{
		Error:   "not_found",
		Message: "room is not configured",
	})
	return false
}

// FrameHandler runs the cache-aware pipeline for one camera
// and returns the full FrameResult
func (v *View) FrameHandler(w http.ResponseWriter, r *http.Request) {
	room, cam := camVars(r)
	if !v.guardRoom(w, room) {
		return
	}

	fr, cached, err := v.Monitor.AnalyzeRoom(room, cam)
	if err != nil {
		writeAnalysisErr(w, err)
		return
	}

	v.Stats.RecFrame(cached)
	writeJSON(w, http.StatusOK, fr)
}

// DataHandler is the compact per-camera payload the dashboard
// polls: people count plus the mean person confidence
func (v *View) DataHandler(w http.ResponseWriter, r *http.Request) {
	room, cam := camVars(r)
	if !v.guardRoom(w, room) {
		return
	}

	fr, cached, err := v.Monitor.AnalyzeRoom(room, cam)
	if err != nil {
		writeAnalysisErr(w, err)
		return
	}
	v.Stats.RecFrame(cached)

	avgConf := 0.0
	if len(fr.PerPerson) > 0 {
		sum := 0
		for _, p := range fr.PerPerson {
			sum += p.Confidence
		}
		avgConf = Ms.FloatPrecise(float64(sum)/float64(len(fr.PerPerson)), 2)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":        room,
		"camera_id":      cam,
		"num_people":     fr.TotalPeople,
		"avg_confidence": avgConf,
		"attention_rate": fr.AttentionRate,
	})
}

func (v *View) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	if !v.guardRoom(w, room) {
		return
	}
	writeJSON(w, http.StatusOK, v.Monitor.History.Ordered(room))
}

func (v *View) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	if !v.guardRoom(w, room) {
		return
	}
	writeJSON(w, http.StatusOK, v.Monitor.Alerts.ActivityFor(room))
}

// AlertsHandler serves incremental alert polling via ?since=<id>
func (v *View) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	since, err := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	if err != nil {
		since = 0
	}

	alerts, latest := v.Monitor.Alerts.AlertsSince(since)
	if alerts == nil {
		alerts = []Mt.Alert{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts":    alerts,
		"latest_id": latest,
	})
}

// ExportHandler bundles aggregates, history and activity into the
// downloadable room report
func (v *View) ExportHandler(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	if !v.guardRoom(w, room) {
		return
	}
	writeJSON(w, http.StatusOK, v.Monitor.ExportRoom(room))
}
