package attento_test

import (
	"testing"

	Ms "github.com/maroda/attento/server"
	Mt "github.com/maroda/attento/types"
)

// frameOf builds a FrameResult straight from bucket counts
func frameOf(att, sleep, down, away, unk int) Mt.FrameResult {
	total := att + sleep + down + away + unk
	fr := Mt.FrameResult{
		TotalPeople: total,
		Summary: map[Mt.Behavior]int{
			Mt.Attentive:   att,
			Mt.Sleeping:    sleep,
			Mt.LookingDown: down,
			Mt.LookingAway: away,
			Mt.Unknown:     unk,
		},
	}
	if total > 0 {
		fr.AttentionRate = Ms.FloatPrecise(100*float64(att)/float64(total), 1)
	}
	return fr
}

func TestAlertEngine_Evaluate(t *testing.T) {
	t.Run("Sleeping occupant fires a warning", func(t *testing.T) {
		ae := Ms.NewAlertEngine()
		fired := ae.Evaluate("room-a", frameOf(3, 2, 0, 0, 0))

		assertInt(t, len(fired), 1)
		assertString(t, fired[0].Severity, Ms.SevWarning)
		assertString(t, fired[0].Message, "room-a: 2 sleeping")

		activity := ae.ActivityFor("room-a")
		assertInt(t, len(activity), 1)
		assertString(t, activity[0].Message, "room-a: 2 sleeping")
	})

	t.Run("Low attention rate fires an alert", func(t *testing.T) {
		ae := Ms.NewAlertEngine()
		fired := ae.Evaluate("room-a", frameOf(1, 0, 0, 2, 0))

		assertInt(t, len(fired), 1)
		assertString(t, fired[0].Severity, Ms.SevAlert)
		assertString(t, fired[0].Message, "room-a: attention rate 33.3% of 3 present")
	})

	t.Run("Low attention needs someone present", func(t *testing.T) {
		ae := Ms.NewAlertEngine()
		fired := ae.Evaluate("room-a", frameOf(0, 0, 0, 0, 0))
		assertInt(t, len(fired), 0)
	})

	t.Run("Looking-down cluster is alert-only", func(t *testing.T) {
		ae := Ms.NewAlertEngine()
		fired := ae.Evaluate("room-a", frameOf(4, 0, 3, 0, 0))

		assertInt(t, len(fired), 1)
		assertString(t, fired[0].Severity, Ms.SevInfo)
		assertString(t, fired[0].Message, "room-a: 3 looking down")
		assertInt(t, len(ae.ActivityFor("room-a")), 0)
	})

	t.Run("Independent rules fire in the same call", func(t *testing.T) {
		ae := Ms.NewAlertEngine()
		fired := ae.Evaluate("room-a", frameOf(1, 1, 3, 0, 1))

		assertInt(t, len(fired), 3)
		assertInt64(t, fired[0].ID, 1)
		assertInt64(t, fired[1].ID, 2)
		assertInt64(t, fired[2].ID, 3)
	})

	t.Run("No suppression between frames", func(t *testing.T) {
		ae := Ms.NewAlertEngine()
		fr := frameOf(4, 0, 3, 0, 0)
		for i := 0; i < 3; i++ {
			ae.Evaluate("room-a", fr)
		}

		alerts, latest := ae.AlertsSince(0)
		assertInt(t, len(alerts), 3)
		assertInt64(t, latest, 3)
		for i, a := range alerts {
			assertInt64(t, a.ID, int64(i+1))
		}
	})

	t.Run("Fired alerts reach the observer", func(t *testing.T) {
		ae := Ms.NewAlertEngine()
		var seen []string
		ae.OnFire = func(a Mt.Alert) {
			seen = append(seen, a.Severity)
		}

		ae.Evaluate("room-a", frameOf(3, 1, 0, 0, 0))
		assertInt(t, len(seen), 1)
		assertString(t, seen[0], Ms.SevWarning)
	})
}

func TestAlertEngine_Caps(t *testing.T) {
	t.Run("Alert sequence drops the oldest past the cap", func(t *testing.T) {
		ae := Ms.NewAlertEngine()
		fr := frameOf(4, 0, 3, 0, 0)
		for i := 0; i < Ms.AlertCap+5; i++ {
			ae.Evaluate("room-a", fr)
		}

		alerts, latest := ae.AlertsSince(0)
		assertInt(t, len(alerts), Ms.AlertCap)
		assertInt64(t, latest, int64(Ms.AlertCap+5))
		assertInt64(t, alerts[0].ID, 6)
	})

	t.Run("Cursor filtering survives eviction", func(t *testing.T) {
		ae := Ms.NewAlertEngine()
		fr := frameOf(4, 0, 3, 0, 0)
		for i := 0; i < Ms.AlertCap+5; i++ {
			ae.Evaluate("room-a", fr)
		}

		alerts, latest := ae.AlertsSince(int64(Ms.AlertCap + 2))
		assertInt(t, len(alerts), 3)
		assertInt64(t, latest, int64(Ms.AlertCap+5))
	})

	t.Run("Activity log truncates to its cap", func(t *testing.T) {
		ae := Ms.NewAlertEngine()
		fr := frameOf(3, 1, 0, 0, 0)
		for i := 0; i < Ms.ActivityCap+5; i++ {
			ae.Evaluate("room-a", fr)
		}
		assertInt(t, len(ae.ActivityFor("room-a")), Ms.ActivityCap)
	})
}

func TestAlertEngine_RestoreActivity(t *testing.T) {
	var entries []Mt.ActivityEntry
	for i := 0; i < Ms.ActivityCap+5; i++ {
		entries = append(entries, Mt.ActivityEntry{Severity: Ms.SevWarning, Message: "old"})
	}

	ae := Ms.NewAlertEngine()
	ae.RestoreActivity("room-a", entries)
	assertInt(t, len(ae.ActivityFor("room-a")), Ms.ActivityCap)

	t.Run("Restored narrative stays newest first", func(t *testing.T) {
		ae.Evaluate("room-a", frameOf(3, 1, 0, 0, 0))
		activity := ae.ActivityFor("room-a")
		assertInt(t, len(activity), Ms.ActivityCap)
		assertString(t, activity[0].Message, "room-a: 1 sleeping")
	})
}

func TestAlertEngine_SnapshotActivity(t *testing.T) {
	ae := Ms.NewAlertEngine()
	ae.Evaluate("room-a", frameOf(3, 1, 0, 0, 0))
	ae.Evaluate("room-b", frameOf(0, 2, 0, 0, 0))

	snap := ae.SnapshotActivity()
	assertInt(t, len(snap), 2)
	assertInt(t, len(snap["room-a"]), 1)
	// room-b fires sleeping and low attention
	assertInt(t, len(snap["room-b"]), 2)
}
