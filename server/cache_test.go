package attento_test

import (
	"testing"
	"time"

	Ms "github.com/maroda/attento/server"
	Mt "github.com/maroda/attento/types"
)

func TestFrameCache(t *testing.T) {
	frA := Mt.FrameResult{TotalPeople: 3, AttentionRate: 66.7}
	frB := Mt.FrameResult{TotalPeople: 1, AttentionRate: 100.0}

	t.Run("Fresh cache misses", func(t *testing.T) {
		fc := Ms.NewFrameCache(Ms.FrameCacheTTL)
		_, ok := fc.Get("room-a", 1)
		if ok {
			t.Error("expected a miss from a fresh cache")
		}
	})

	t.Run("Put then get round trips", func(t *testing.T) {
		fc := Ms.NewFrameCache(Ms.FrameCacheTTL)
		fc.Put("room-a", 1, frA)

		got, ok := fc.Get("room-a", 1)
		if !ok {
			t.Fatal("expected a hit")
		}
		assertInt(t, got.TotalPeople, frA.TotalPeople)
	})

	t.Run("Cameras are cached independently", func(t *testing.T) {
		fc := Ms.NewFrameCache(Ms.FrameCacheTTL)
		fc.Put("room-a", 1, frA)
		fc.Put("room-a", 2, frB)

		got, _ := fc.Get("room-a", 1)
		assertInt(t, got.TotalPeople, frA.TotalPeople)
		got, _ = fc.Get("room-a", 2)
		assertInt(t, got.TotalPeople, frB.TotalPeople)

		if _, ok := fc.Get("room-b", 1); ok {
			t.Error("expected a miss for an unseen room")
		}
	})

	t.Run("Entries expire after the TTL", func(t *testing.T) {
		fc := Ms.NewFrameCache(40 * time.Millisecond)
		fc.Put("room-a", 1, frA)

		if _, ok := fc.Get("room-a", 1); !ok {
			t.Fatal("expected a hit inside the TTL")
		}

		time.Sleep(80 * time.Millisecond)
		if _, ok := fc.Get("room-a", 1); ok {
			t.Error("expected the entry to expire")
		}
	})

	t.Run("Put overwrites and resets the age", func(t *testing.T) {
		fc := Ms.NewFrameCache(60 * time.Millisecond)
		fc.Put("room-a", 1, frA)

		time.Sleep(40 * time.Millisecond)
		fc.Put("room-a", 1, frB)

		time.Sleep(40 * time.Millisecond)
		got, ok := fc.Get("room-a", 1)
		if !ok {
			t.Fatal("expected the rewritten entry to survive")
		}
		assertInt(t, got.TotalPeople, frB.TotalPeople)
	})
}
