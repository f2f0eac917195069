package plugin

/*

	The Adapter sits aside /attento/
	Contains core interfaces for Plugin

*/

import (
	Mt "github.com/maroda/attento/types"
)

// StoreAdapter is a durable home for the per-room bounded state.
// Failures are logged and non-fatal upstream: in-memory state stays
// authoritative whether or not the store cooperates.
type StoreAdapter interface {
	SaveRoom(roomID string, archive *Mt.RoomArchive) error // Write one room's archive
	SaveAll(archives map[string]*Mt.RoomArchive) error     // Write every room in one batch
	LoadAll() (map[string]*Mt.RoomArchive, error)          // Restore everything at startup
	Close() error                                          // Close the adapter and release resources
	Type() string                                          // ID for output
}
