package attento_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	Md "github.com/maroda/attento/display"
)

func TestNewView(t *testing.T) {
	t.Run("Requires a monitor", func(t *testing.T) {
		_, err := Md.NewView(nil)
		if err == nil {
			t.Fatal("expected an error for a nil monitor")
		}
	})

	t.Run("Attaches a private metric registry", func(t *testing.T) {
		view := makeHealthyView(t)
		if view.Stats == nil {
			t.Fatal("expected stats to be attached")
		}
	})

	t.Run("Fired alerts feed the severity counters", func(t *testing.T) {
		view := makeHealthyView(t)
		view.Monitor.AnalyzeRoom("room-a", 1)

		// the sleeper fires warning and alert once each
		got := testutil.ToFloat64(view.Stats.AlertsFired.WithLabelValues("warning"))
		assertFloat(t, got, 1)
		got = testutil.ToFloat64(view.Stats.AlertsFired.WithLabelValues("alert"))
		assertFloat(t, got, 1)
	})
}

func TestView_StatsMiddleware(t *testing.T) {
	view := makeHealthyView(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	wrapped := view.StatsMiddleware(inner)

	r := httptest.NewRequest("GET", "/api/anything", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, r)

	assertStatus(t, w.Code, http.StatusTeapot)
	got := testutil.ToFloat64(view.Stats.WWW.WithLabelValues("418", "GET"))
	assertFloat(t, got, 1)
}

func TestAttnRune(t *testing.T) {
	cases := []struct {
		rate float64
		want rune
	}{
		{0, '▁'},
		{20, '▂'},
		{30, '▃'},
		{45, '▄'},
		{60, '▅'},
		{70, '▆'},
		{80, '▇'},
		{100, '█'},
	}

	for _, c := range cases {
		got := Md.AttnRune(c.rate)
		if got != c.want {
			t.Errorf("AttnRune(%.1f) = %q, want %q", c.rate, got, c.want)
		}
	}
}
