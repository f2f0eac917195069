package attento

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	Mt "github.com/maroda/attento/types"
)

// RoomPulse is the live dashboard shape pushed over the websocket
type RoomPulse struct {
	RoomID        string  `json:"roomId"`
	Name          string  `json:"name"`
	AttentionRate float64 `json:"attentionRate"`
	TotalPeople   int     `json:"totalPeople"`
	Sleeping      int     `json:"sleeping"`
	LookingDown   int     `json:"lookingDown"`
	Stale         bool    `json:"stale"` // no frame recorded yet
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler streams the room picture on a fixed beat
func (v *View) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteJSON(v.GetRoomPulses()); err != nil {
			return // Connection closed
		}
	}
}

// GetRoomPulses projects the latest history record of every
// configured room into the dashboard shape
func (v *View) GetRoomPulses() []RoomPulse {
	// Make sure we're not nil
	if v.Monitor == nil {
		return []RoomPulse{}
	}

	pulses := make([]RoomPulse, 0, len(v.Monitor.Rooms))
	for _, room := range v.Monitor.Rooms {
		pulse := RoomPulse{RoomID: room.ID, Name: room.Name, Stale: true}

		if rec, ok := v.Monitor.History.Latest(room.ID); ok {
			pulse.AttentionRate = rec.AttentionRate
			pulse.TotalPeople = rec.TotalPeople
			pulse.Sleeping = rec.Summary[Mt.Sleeping]
			pulse.LookingDown = rec.Summary[Mt.LookingDown]
			pulse.Stale = false
		}

		pulses = append(pulses, pulse)
	}
	return pulses
}
