package plugin

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	Mt "github.com/maroda/attento/types"
)

// roomKeyPrefix namespaces room archives inside the database
const roomKeyPrefix = "room:"

type BadgerStore struct {
	MU sync.Mutex
	DB *badger.DB
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerStore failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerStore opened", slog.String("path", path))

	return &BadgerStore{DB: db}, nil
}

// RoomKey builds the storage key for one room
func RoomKey(roomID string) []byte {
	return []byte(roomKeyPrefix + roomID)
}

// ArchiveEncode serializes the room archive for data storage
func ArchiveEncode(a *Mt.RoomArchive) []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	enc.Encode(a)
	return buf.Bytes()
}

// ArchiveDecode deserializes the room archive data
func ArchiveDecode(data []byte) (*Mt.RoomArchive, error) {
	var a Mt.RoomArchive
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	err := dec.Decode(&a)
	return &a, err
}

// SaveRoom writes one room's bounded history and activity
func (bs *BadgerStore) SaveRoom(roomID string, archive *Mt.RoomArchive) error {
	bs.MU.Lock()
	defer bs.MU.Unlock()

	err := bs.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(RoomKey(roomID), ArchiveEncode(archive))
	})
	if err != nil {
		slog.Error("BadgerStore failed to save room",
			slog.Any("error", err),
			slog.String("room", roomID))
		return fmt.Errorf("room save error: %w", err)
	}
	return nil
}

// SaveAll writes every room archive in one write batch
func (bs *BadgerStore) SaveAll(archives map[string]*Mt.RoomArchive) error {
	bs.MU.Lock()
	defer bs.MU.Unlock()

	wb := bs.DB.NewWriteBatch()
	defer wb.Cancel()

	for roomID, a := range archives {
		if err := wb.Set(RoomKey(roomID), ArchiveEncode(a)); err != nil {
			slog.Error("BadgerStore failed to set key in batch",
				slog.Any("error", err),
				slog.String("room", roomID))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerStore failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}

	return nil
}

// LoadAll restores every stored room archive.
// An empty database is a normal cold start, not an error.
func (bs *BadgerStore) LoadAll() (map[string]*Mt.RoomArchive, error) {
	archives := make(map[string]*Mt.RoomArchive)

	// db.View() callback
	// BadgerDB provides a transaction in which to get item.Value()
	err := bs.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(roomKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			roomID := strings.TrimPrefix(string(item.Key()), roomKeyPrefix)

			err := item.Value(func(val []byte) error {
				archive, err := ArchiveDecode(val)
				if err != nil {
					slog.Error("BadgerStore failed to decode archive",
						slog.Any("error", err),
						slog.String("room", roomID))
					return fmt.Errorf("archive decode error: %w", err)
				}
				archives[roomID] = archive
				return nil
			})
			if err != nil {
				slog.Error("BadgerStore callback failure", slog.Any("error", err))
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})

	slog.Info("BadgerStore LoadAll successful", slog.Int("rooms", len(archives)))

	return archives, err
}

// Close releases the database
func (bs *BadgerStore) Close() error {
	if err := bs.DB.Close(); err != nil {
		slog.Error("BadgerStore failed to close database", slog.Any("error", err))
		return fmt.Errorf("close failed: %v", err)
	}

	slog.Info("BadgerStore closed successfully")
	return nil
}

func (bs *BadgerStore) Type() string { return "BadgerDB" }
