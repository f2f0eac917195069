package attento

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrSnapshotNotFound marks the normal no-image-yet condition,
// distinct from a processing failure
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotSource supplies the latest still image for one camera
type SnapshotSource interface {
	Fetch(roomID string, camID int) ([]byte, error)
}

// DirSnapshots serves camera stills dropped into a directory
// as {room}_{cam}.png, the layout the capture cron writes
type DirSnapshots struct {
	Dir string
}

func NewDirSnapshots(dir string) *DirSnapshots {
	return &DirSnapshots{Dir: dir}
}

func (ds *DirSnapshots) Fetch(roomID string, camID int) ([]byte, error) {
	path := filepath.Join(ds.Dir, fmt.Sprintf("%s_%d.png", roomID, camID))

	img, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("snapshot read error: %w", err)
	}
	return img, nil
}
