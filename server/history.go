package attento

import (
	"sync"

	Mt "github.com/maroda/attento/types"
)

// HistoryCap bounds each room's stored frame records
const HistoryCap = 30

// RoomHistory is a fixed-capacity FIFO of HistoryRecord,
// oldest evicted first, indexed modulo MaxSize
type RoomHistory struct {
	Records []Mt.HistoryRecord
	MaxSize int
	Next    int // write position
	Count   int
}

func NewRoomHistory(size int) *RoomHistory {
	return &RoomHistory{
		Records: make([]Mt.HistoryRecord, size),
		MaxSize: size,
	}
}

// Append writes the record at the current position,
// overwriting the oldest entry once the ring is full
func (rh *RoomHistory) Append(rec Mt.HistoryRecord) {
	rh.Records[rh.Next] = rec
	rh.Next = (rh.Next + 1) % rh.MaxSize
	if rh.Count < rh.MaxSize {
		rh.Count++
	}
}

// Ordered returns records oldest to newest
func (rh *RoomHistory) Ordered() []Mt.HistoryRecord {
	out := make([]Mt.HistoryRecord, 0, rh.Count)
	start := 0
	if rh.Count == rh.MaxSize {
		start = rh.Next
	}
	for i := 0; i < rh.Count; i++ {
		out = append(out, rh.Records[(start+i)%rh.MaxSize])
	}
	return out
}

// Latest returns the newest record, false when the room has none
func (rh *RoomHistory) Latest() (Mt.HistoryRecord, bool) {
	if rh.Count == 0 {
		return Mt.HistoryRecord{}, false
	}
	idx := (rh.Next - 1 + rh.MaxSize) % rh.MaxSize
	return rh.Records[idx], true
}

// StatsHistory holds the rolling frame record per room.
// Room sequences are created lazily on first append.
type StatsHistory struct {
	MU    sync.RWMutex
	Rooms map[string]*RoomHistory
}

func NewStatsHistory() *StatsHistory {
	return &StatsHistory{
		Rooms: make(map[string]*RoomHistory),
	}
}

func (sh *StatsHistory) Append(roomID string, rec Mt.HistoryRecord) {
	sh.MU.Lock()
	defer sh.MU.Unlock()

	rh, ok := sh.Rooms[roomID]
	if !ok {
		rh = NewRoomHistory(HistoryCap)
		sh.Rooms[roomID] = rh
	}
	rh.Append(rec)
}

// Ordered returns the room's records oldest to newest,
// empty (not nil error) for an unknown room
func (sh *StatsHistory) Ordered(roomID string) []Mt.HistoryRecord {
	sh.MU.RLock()
	defer sh.MU.RUnlock()

	rh, ok := sh.Rooms[roomID]
	if !ok {
		return []Mt.HistoryRecord{}
	}
	return rh.Ordered()
}

func (sh *StatsHistory) Latest(roomID string) (Mt.HistoryRecord, bool) {
	sh.MU.RLock()
	defer sh.MU.RUnlock()

	rh, ok := sh.Rooms[roomID]
	if !ok {
		return Mt.HistoryRecord{}, false
	}
	return rh.Latest()
}

// Aggregates derives summary statistics from the stored sequence.
// Nothing here is cached, it is recomputed per call.
func (sh *StatsHistory) Aggregates(roomID string) Mt.RoomAggregates {
	records := sh.Ordered(roomID)

	agg := Mt.RoomAggregates{Frames: len(records)}
	if len(records) == 0 {
		return agg
	}

	var attnSum, peopleSum float64
	for _, r := range records {
		attnSum += r.AttentionRate
		peopleSum += float64(r.TotalPeople)
		if r.TotalPeople > agg.MaxPeople {
			agg.MaxPeople = r.TotalPeople
		}
	}
	agg.MeanAttention = FloatPrecise(attnSum/float64(len(records)), 1)
	agg.MeanPeople = FloatPrecise(peopleSum/float64(len(records)), 1)

	return agg
}

// Restore refills a room from a durable archive, keeping the
// newest HistoryCap records when the archive is oversized
func (sh *StatsHistory) Restore(roomID string, records []Mt.HistoryRecord) {
	sh.MU.Lock()
	defer sh.MU.Unlock()

	rh := NewRoomHistory(HistoryCap)
	if len(records) > HistoryCap {
		records = records[len(records)-HistoryCap:]
	}
	for _, r := range records {
		rh.Append(r)
	}
	sh.Rooms[roomID] = rh
}

// Snapshot copies every room's ordered records for persistence
func (sh *StatsHistory) Snapshot() map[string][]Mt.HistoryRecord {
	sh.MU.RLock()
	defer sh.MU.RUnlock()

	out := make(map[string][]Mt.HistoryRecord, len(sh.Rooms))
	for id, rh := range sh.Rooms {
		out[id] = rh.Ordered()
	}
	return out
}
