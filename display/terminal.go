package attento

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	Mo "github.com/maroda/attento/obvy"
	Ms "github.com/maroda/attento/server"
	Mt "github.com/maroda/attento/types"
)

const (
	screenGutter = 4
	attnBarWidth = 40
)

// View is updated by whatever the Monitor sweeps up
type View struct {
	MU         sync.Mutex        // State locks to read data
	Monitor    *Ms.Monitor       // The analysis pipeline and room state
	Screen     tcell.Screen      // the screen itself, nil in web-only mode
	Stats      *Mo.StatsInternal // Internal status for prometheus
	Supervisor *PollSupervisor   // Room sweep goroutine
	server     *http.Server      // API and metrics server
}

// NewView attaches a prometheus registry to the Monitor.
// The tcell screen is only created by StartRoomView.
func NewView(m *Ms.Monitor) (*View, error) {
	if m == nil {
		slog.Error("Could not get a Monitor for display")
		return nil, errors.New("monitor not found")
	}

	// create an attached prometheus registry
	stats := Mo.NewStatsInternal()

	view := &View{
		Monitor: m,
		Stats:   stats,
	}

	// alert observer feeds the severity counters
	m.Alerts.OnFire = func(a Mt.Alert) {
		stats.RecAlert(a.Severity)
	}

	return view, nil
}

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

// WriteHeader is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *View) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		v.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}

// StartWeb runs the sweep supervisor and the API server, blocking
// on the latter. This is the headless deployment mode.
func (v *View) StartWeb(addr string, interval time.Duration) error {
	v.server = &http.Server{
		Addr:    addr,
		Handler: otelhttp.NewHandler(v.SetupMux(), "attento-api"),
	}

	v.NewPollSupervisor(interval).Start()

	slog.Info("Starting Attento web server...", slog.String("Addr", addr))
	if err := v.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Could not start API server", slog.Any("Error", err))
		return err
	}

	return nil
}

// Shutdown stops the sweep, the API server, and flushes state
func (v *View) Shutdown() {
	if v.Supervisor != nil {
		v.Supervisor.Stop()
	}
	if v.server != nil {
		if err := v.server.Close(); err != nil {
			slog.Error("Close Error", slog.Any("Error", err))
		}
	}
	v.Monitor.FlushAll()
}

////////// ROOM VIEW (TUI)

// AttnRune grades an attention rate into a bar rune
func AttnRune(rate float64) rune {
	switch {
	case rate < 12.5:
		return '▁'
	case rate < 25:
		return '▂'
	case rate < 37.5:
		return '▃'
	case rate < 50:
		return '▄'
	case rate < 62.5:
		return '▅'
	case rate < 75:
		return '▆'
	case rate < 87.5:
		return '▇'
	default:
		return '█'
	}
}

// StartRoomView runs the terminal dashboard on top of the web
// server: a bar per room graded by attention rate. Blocks until
// Esc or Ctrl-C.
func (v *View) StartRoomView(addr string, interval time.Duration) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		slog.Error("Could not get new screen", slog.Any("Error", err))
		return err
	}
	if err := screen.Init(); err != nil {
		slog.Error("Could not initialize screen", slog.Any("Error", err))
		return err
	}

	defStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
	screen.SetStyle(defStyle)
	v.Screen = screen

	v.server = &http.Server{
		Addr:    addr,
		Handler: otelhttp.NewHandler(v.SetupMux(), "attento-api"),
	}
	go func() {
		if err := v.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start API server", slog.Any("Error", err))
		}
	}()

	v.NewPollSupervisor(interval).Start()
	go v.run()

	v.handleKeyboardEvent()
	return nil
}

// run redraws the room picture once a second
func (v *View) run() {
	// Panic recovery and logging
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in run loop", slog.Any("panic", r))
			slog.Error("Recovered from panic", slog.String("stack", string(debug.Stack())))
		}
	}()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		v.UpdateScreen()
	}
}

func (v *View) UpdateScreen() {
	v.MU.Lock()
	defer v.MU.Unlock()

	if v.Screen == nil {
		return
	}

	v.Screen.Clear()
	v.DrawRooms()
	v.Screen.Show()
}

// DrawRooms writes one line per room: ID, attention bar, counts
func (v *View) DrawRooms() {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	alarm := tcell.StyleDefault.Foreground(tcell.ColorRed)

	y := screenGutter
	for _, room := range v.Monitor.Rooms {
		rec, ok := v.Monitor.History.Latest(room.ID)

		label := room.ID + " (no data)"
		if ok {
			label = room.ID
		}
		v.drawString(1, y, label, style)

		if ok {
			barStyle := style
			if rec.AttentionRate < Ms.AttentionAlertBelow && rec.TotalPeople > 0 {
				barStyle = alarm
			}
			fill := int(rec.AttentionRate / 100 * attnBarWidth)
			for x := 0; x < attnBarWidth; x++ {
				r := ' '
				if x < fill {
					r = AttnRune(rec.AttentionRate)
				}
				v.Screen.SetContent(screenGutter+16+x, y, r, nil, barStyle)
			}
			v.drawString(screenGutter+18+attnBarWidth, y,
				strconv.Itoa(rec.TotalPeople)+" present", style)
		}

		y += 2
	}
}

func (v *View) drawString(x, y int, s string, style tcell.Style) {
	for i, r := range s {
		v.Screen.SetContent(x+i, y, r, nil, style)
	}
}

// handleKeyboardEvent blocks on the tcell event loop
func (v *View) handleKeyboardEvent() {
	quit := func() {
		// You have to catch panics in a defer, clean up, and
		// re-raise them - otherwise your application can
		// die without leaving any diagnostic trace.
		maybePanic := recover()
		v.Screen.Fini()
		v.Shutdown()
		if maybePanic != nil {
			panic(maybePanic)
		}
	}
	defer quit()

	for {
		ev := v.Screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			v.Screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return
			} else if ev.Key() == tcell.KeyCtrlL {
				v.Screen.Sync()
			}
		}
	}
}
