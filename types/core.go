package types

/*

	These are the "immutable" core types of Attento,
	provided for cross-package use (e.g. Plugins) and testing.

	There are no functions defined here.
	Struct constructors are housed in their own packages.
	Methods taking these types should create local aliases,
	for example: type HistoryRecords []Mt.HistoryRecord

*/

import "time"

// Behavior is one classification label for a detected person
type Behavior string

const (
	Attentive   Behavior = "attentive"
	LookingDown Behavior = "looking_down"
	Sleeping    Behavior = "sleeping"
	LookingAway Behavior = "looking_away"
	Unknown     Behavior = "unknown"
)

// Keypoint is one anatomical landmark from the pose detector:
// a 2D position plus the detector's confidence [0,1].
// Below the visibility threshold a keypoint is treated as absent.
type Keypoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Conf float64 `json:"confidence"`
}

// COCO keypoint layout used by the pose detector.
// Indices 0-12 are the minimum required for scoring.
const (
	KPNose = iota
	KPLeftEye
	KPRightEye
	KPLeftEar
	KPRightEar
	KPLeftShoulder
	KPRightShoulder
	KPLeftElbow
	KPRightElbow
	KPLeftWrist
	KPRightWrist
	KPLeftHip
	KPRightHip
)

// KPMinCount is the minimum keypoint slots a detection must carry
const KPMinCount = 13

// PersonResult is the classification of one detected person.
// Immutable once produced.
type PersonResult struct {
	Behavior   Behavior      `json:"behavior"`
	Confidence int           `json:"confidence"` // 0-100
	Details    PersonDetails `json:"details"`
}

// PersonDetails carries the scoring diagnostics for one person
type PersonDetails struct {
	Scores     map[Behavior]float64 `json:"scores"`
	VisibleKPs int                  `json:"visible_keypoint_count"`
}

// FrameResult is the full analysis of one snapshot
type FrameResult struct {
	TotalPeople   int              `json:"total_people"`
	PerPerson     []PersonResult   `json:"behaviors"`
	Summary       map[Behavior]int `json:"summary"`
	AttentionRate float64          `json:"attention_rate"` // 0-100, one decimal
}

// HistoryRecord is one FrameResult projected for durability
type HistoryRecord struct {
	Timestamp     time.Time        `json:"timestamp"`
	AttentionRate float64          `json:"attention_rate"`
	TotalPeople   int              `json:"total_people"`
	Summary       map[Behavior]int `json:"summary"`
}

// ActivityEntry is one line of the human-readable room narrative,
// distinct from the machine-oriented Alert sequence
type ActivityEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
}

// Alert is one machine-readable alert. ID is monotonically
// increasing and never reused, so it works as a polling cursor.
type Alert struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RoomID    string    `json:"room_id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
}

// RoomArchive is the durable per-room shape held by a store adapter:
// the bounded history and activity sequences in their in-memory order.
type RoomArchive struct {
	History  []HistoryRecord
	Activity []ActivityEntry
}

// RoomAggregates are derived on demand from a room's stored history
type RoomAggregates struct {
	Frames        int     `json:"frames"`
	MeanAttention float64 `json:"mean_attention_rate"`
	MeanPeople    float64 `json:"mean_people"`
	MaxPeople     int     `json:"max_people"`
}
