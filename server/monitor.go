package attento

import (
	"log/slog"
	"time"

	Mp "github.com/maroda/attento/plugin"
	Mt "github.com/maroda/attento/types"
)

// Monitor is the entire connected network of monitored rooms.
// It owns the pipeline and every piece of process-wide state, so
// there are no ambient globals and tests can build one per case.
type Monitor struct {
	Rooms    []ConfigFile
	Detector PoseDetector
	Snaps    SnapshotSource
	Agg      *Aggregator
	Cache    *FrameCache
	History  *StatsHistory
	Alerts   *AlertEngine
	Store    Mp.StoreAdapter // optional, nil disables persistence
}

// NewMonitor wires the default pipeline for the configured rooms.
// The store may be nil, everything else is required.
func NewMonitor(rooms []ConfigFile, det PoseDetector, snaps SnapshotSource, store Mp.StoreAdapter) *Monitor {
	return &Monitor{
		Rooms:    rooms,
		Detector: det,
		Snaps:    snaps,
		Agg:      NewAggregator(NewScorer()),
		Cache:    NewFrameCache(FrameCacheTTL),
		History:  NewStatsHistory(),
		Alerts:   NewAlertEngine(),
		Store:    store,
	}
}

// RoomExport is the full downloadable report for one room
type RoomExport struct {
	RoomID     string             `json:"room_id"`
	Generated  time.Time          `json:"generated"`
	Aggregates Mt.RoomAggregates  `json:"aggregates"`
	History    []Mt.HistoryRecord `json:"history"`
	Activity   []Mt.ActivityEntry `json:"activity"`
}

// AnalyzeRoom is the cache-aware entrypoint for one camera.
// A hit never touches the snapshot source or the detector.
// The bool reports whether the result came from the cache.
func (m *Monitor) AnalyzeRoom(roomID string, camID int) (Mt.FrameResult, bool, error) {
	if fr, ok := m.Cache.Get(roomID, camID); ok {
		return fr, true, nil
	}

	img, err := m.Snaps.Fetch(roomID, camID)
	if err != nil {
		return Mt.FrameResult{}, false, err
	}

	fr, err := m.AnalyzeImage(roomID, camID, img)
	return fr, false, err
}

// AnalyzeImage runs the full pipeline on one snapshot:
// detect, score, aggregate, then cache the result, append the
// room history and evaluate alerts. Nothing is cached on failure.
func (m *Monitor) AnalyzeImage(roomID string, camID int, image []byte) (Mt.FrameResult, error) {
	if fr, ok := m.Cache.Get(roomID, camID); ok {
		return fr, nil
	}

	people, err := m.Detector.Detect(image)
	if err != nil {
		return Mt.FrameResult{}, err
	}

	fr := m.Agg.AggregateFrame(people)
	m.Cache.Put(roomID, camID, fr)

	m.RecordStats(roomID, fr)
	m.Alerts.Evaluate(roomID, fr)
	m.FlushRoom(roomID)

	return fr, nil
}

// RecordStats appends one frame projection to the room history
func (m *Monitor) RecordStats(roomID string, fr Mt.FrameResult) {
	m.History.Append(roomID, Mt.HistoryRecord{
		Timestamp:     time.Now(),
		AttentionRate: fr.AttentionRate,
		TotalPeople:   fr.TotalPeople,
		Summary:       fr.Summary,
	})
}

// FlushRoom pushes one room's bounded state at the store.
// A store failure is logged only, memory stays authoritative.
func (m *Monitor) FlushRoom(roomID string) {
	if m.Store == nil {
		return
	}

	archive := &Mt.RoomArchive{
		History:  m.History.Ordered(roomID),
		Activity: m.Alerts.ActivityFor(roomID),
	}
	if err := m.Store.SaveRoom(roomID, archive); err != nil {
		slog.Error("Could not flush room state", slog.String("Room", roomID), slog.Any("Error", err))
	}
}

// FlushAll persists every room in one batch, used at shutdown
func (m *Monitor) FlushAll() {
	if m.Store == nil {
		return
	}

	archives := make(map[string]*Mt.RoomArchive)
	for roomID, history := range m.History.Snapshot() {
		archives[roomID] = &Mt.RoomArchive{
			History:  history,
			Activity: m.Alerts.ActivityFor(roomID),
		}
	}
	if err := m.Store.SaveAll(archives); err != nil {
		slog.Error("Could not flush monitor state", slog.Any("Error", err))
	}
}

// RestoreFromStore loads every archived room back into memory.
// Load failure is a cold start, not a fatal condition.
func (m *Monitor) RestoreFromStore() {
	if m.Store == nil {
		return
	}

	archives, err := m.Store.LoadAll()
	if err != nil {
		slog.Error("Could not restore state, starting cold", slog.Any("Error", err))
		return
	}

	for roomID, a := range archives {
		m.History.Restore(roomID, a.History)
		m.Alerts.RestoreActivity(roomID, a.Activity)
	}

	if len(archives) > 0 {
		slog.Info("Restored room state", slog.Int("Rooms", len(archives)))
	}
}

// ExportRoom assembles the downloadable report for one room
func (m *Monitor) ExportRoom(roomID string) RoomExport {
	return RoomExport{
		RoomID:     roomID,
		Generated:  time.Now(),
		Aggregates: m.History.Aggregates(roomID),
		History:    m.History.Ordered(roomID),
		Activity:   m.Alerts.ActivityFor(roomID),
	}
}

// KnownRoom reports whether the room appears in the config
func (m *Monitor) KnownRoom(roomID string) bool {
	for _, r := range m.Rooms {
		if r.ID == roomID {
			return true
		}
	}
	return false
}
