package attento

import (
	"fmt"
	"sync"
	"time"

	Mt "github.com/maroda/attento/types"
)

const (
	// ActivityCap bounds each room's narrative log
	ActivityCap = 20
	// AlertCap bounds the global alert sequence
	AlertCap = 50

	// Rule thresholds
	AttentionAlertBelow = 50.0
	LookingDownCluster  = 3
)

// Alert severities
const (
	SevWarning = "warning"
	SevAlert   = "alert"
	SevInfo    = "info"
)

// AlertEngine inspects each newly analyzed frame against the
// threshold rules. There is no suppression beyond the natural
// throttling of the frame cache: a cached hit never reaches
// Evaluate, a fresh qualifying frame always fires.
type AlertEngine struct {
	MU       sync.Mutex
	Activity map[string][]Mt.ActivityEntry // newest first per room
	Alerts   []Mt.Alert                    // global, oldest first
	LastID   int64
	OnFire   func(Mt.Alert) // optional observer, e.g. prometheus counters
}

func NewAlertEngine() *AlertEngine {
	return &AlertEngine{
		Activity: make(map[string][]Mt.ActivityEntry),
	}
}

// Evaluate runs every rule against one fresh FrameResult.
// All rules are independent and may fire in the same call.
// Returns the alerts fired for this frame.
func (ae *AlertEngine) Evaluate(roomID string, fr Mt.FrameResult) []Mt.Alert {
	ae.MU.Lock()
	defer ae.MU.Unlock()

	now := time.Now()
	var fired []Mt.Alert

	if n := fr.Summary[Mt.Sleeping]; n > 0 {
		msg := fmt.Sprintf("%s: %d sleeping", roomID, n)
		ae.logActivity(roomID, now, SevWarning, msg)
		fired = append(fired, ae.appendAlert(roomID, now, SevWarning, msg))
	}

	if fr.AttentionRate < AttentionAlertBelow && fr.TotalPeople > 0 {
		msg := fmt.Sprintf("%s: attention rate %.1f%% of %d present",
			roomID, fr.AttentionRate, fr.TotalPeople)
		ae.logActivity(roomID, now, SevAlert, msg)
		fired = append(fired, ae.appendAlert(roomID, now, SevAlert, msg))
	}

	// Phone cluster is alert-only, it stays out of the room narrative
	if n := fr.Summary[Mt.LookingDown]; n >= LookingDownCluster {
		msg := fmt.Sprintf("%s: %d looking down", roomID, n)
		fired = append(fired, ae.appendAlert(roomID, now, SevInfo, msg))
	}

	return fired
}

// logActivity prepends one narrative entry, newest first
func (ae *AlertEngine) logActivity(roomID string, ts time.Time, severity, msg string) {
	entry := Mt.ActivityEntry{Timestamp: ts, Severity: severity, Message: msg}
	log := append([]Mt.ActivityEntry{entry}, ae.Activity[roomID]...)
	if len(log) > ActivityCap {
		log = log[:ActivityCap]
	}
	ae.Activity[roomID] = log
}

// appendAlert mints the next ID and appends to the global sequence.
// IDs are never reused even after the oldest entries fall off.
func (ae *AlertEngine) appendAlert(roomID string, ts time.Time, severity, msg string) Mt.Alert {
	ae.LastID++
	alert := Mt.Alert{
		ID:        ae.LastID,
		Timestamp: ts,
		RoomID:    roomID,
		Severity:  severity,
		Message:   msg,
	}
	ae.Alerts = append(ae.Alerts, alert)
	if len(ae.Alerts) > AlertCap {
		ae.Alerts = ae.Alerts[len(ae.Alerts)-AlertCap:]
	}
	if ae.OnFire != nil {
		ae.OnFire(alert)
	}
	return alert
}

// ActivityFor returns the room's narrative log, newest first
func (ae *AlertEngine) ActivityFor(roomID string) []Mt.ActivityEntry {
	ae.MU.Lock()
	defer ae.MU.Unlock()

	log, ok := ae.Activity[roomID]
	if !ok {
		return []Mt.ActivityEntry{}
	}
	out := make([]Mt.ActivityEntry, len(log))
	copy(out, log)
	return out
}

// AlertsSince returns alerts with ID > since plus the latest ID,
// the incremental polling contract for dashboards
func (ae *AlertEngine) AlertsSince(since int64) ([]Mt.Alert, int64) {
	ae.MU.Lock()
	defer ae.MU.Unlock()

	var out []Mt.Alert
	for _, a := range ae.Alerts {
		if a.ID > since {
			out = append(out, a)
		}
	}
	return out, ae.LastID
}

// RestoreActivity refills one room's narrative from a durable
// archive, truncating to capacity (entries arrive newest first)
func (ae *AlertEngine) RestoreActivity(roomID string, entries []Mt.ActivityEntry) {
	ae.MU.Lock()
	defer ae.MU.Unlock()

	if len(entries) > ActivityCap {
		entries = entries[:ActivityCap]
	}
	log := make([]Mt.ActivityEntry, len(entries))
	copy(log, entries)
	ae.Activity[roomID] = log
}

// SnapshotActivity copies every room's narrative for persistence
func (ae *AlertEngine) SnapshotActivity() map[string][]Mt.ActivityEntry {
	ae.MU.Lock()
	defer ae.MU.Unlock()

	out := make(map[string][]Mt.ActivityEntry, len(ae.Activity))
	for id, log := range ae.Activity {
		cp := make([]Mt.ActivityEntry, len(log))
		copy(cp, log)
		out[id] = cp
	}
	return out
}
