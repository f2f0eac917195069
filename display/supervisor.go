package attento

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	Mo "github.com/maroda/attento/obvy"
	Ms "github.com/maroda/attento/server"
)

// PollSupervisor is a wrapper around the View that manages the
// room sweep goroutine. They are strongly coupled, one knows
// about the other.
type PollSupervisor struct {
	View     *View
	Interval time.Duration
	Ticker   *time.Ticker
	StopChan chan struct{}
	WG       sync.WaitGroup
}

func (v *View) NewPollSupervisor(interval time.Duration) *PollSupervisor {
	ps := &PollSupervisor{
		View:     v,
		Interval: interval,
	}
	v.Supervisor = ps
	return ps
}

// ReloadConfig swaps the monitored room set under a running sweep
func (v *View) ReloadConfig(c []Ms.ConfigFile) {
	v.Supervisor.Stop()

	v.MU.Lock()
	v.Monitor.Rooms = c
	v.MU.Unlock()

	v.Supervisor.Start()
}

// Start the PollSupervisor
func (p *PollSupervisor) Start() {
	p.StopChan = make(chan struct{})
	p.Ticker = time.NewTicker(p.Interval)

	p.WG.Add(1)
	go func() {
		defer p.WG.Done()
		defer p.Ticker.Stop()

		for {
			select {
			case <-p.Ticker.C:
				p.View.PollRoomsAll()
			case <-p.StopChan:
				return
			}
		}
	}()
}

// Stop the PollSupervisor
func (p *PollSupervisor) Stop() {
	if p.StopChan != nil {
		close(p.StopChan)
		p.WG.Wait()
	}
}

// Restart the PollSupervisor
func (p *PollSupervisor) Restart() {
	p.Stop()
	p.Start()
}

// PollRoomsAll sweeps every configured camera through the
// pipeline. A missing snapshot is normal and skipped quietly,
// everything else is logged and the sweep keeps going.
func (v *View) PollRoomsAll() {
	start := time.Now()

	_, span := Mo.Tracer().Start(context.Background(), "room-sweep")
	defer span.End()

	for _, room := range v.Monitor.Rooms {
		for cam := 1; cam <= room.Cameras; cam++ {
			_, cached, err := v.Monitor.AnalyzeRoom(room.ID, cam)
			if err != nil {
				if errors.Is(err, Ms.ErrSnapshotNotFound) {
					continue
				}
				// Only log the error, keep going otherwise
				slog.Error("Failed to analyze camera",
					slog.String("Room", room.ID),
					slog.Int("Camera", cam),
					slog.Any("Error", err))
				continue
			}
			v.Stats.RecFrame(cached)
		}
	}

	v.Stats.RecPollTimer(time.Since(start).Seconds())
}
