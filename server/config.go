package attento

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/sethvargo/go-envconfig"
)

// ConfigFile is one monitored room stanza from the on-disk config
type ConfigFile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Cameras int    `json:"cameras"`
}

// AppConfig is the runtime environment configuration
type AppConfig struct {
	Addr        string `env:"ATTENTO_ADDR, default=:8090"`
	DetectorURL string `env:"ATTENTO_DETECTOR_URL, default=http://localhost:5100/pose"`
	SnapshotDir string `env:"ATTENTO_SNAPSHOT_DIR, default=./snapshots"`
	StorePath   string `env:"ATTENTO_STORE_PATH, default=./attento_db"`
	RoomConfig  string `env:"ATTENTO_ROOM_CONFIG, default=./rooms.json"`
	PollSeconds int    `env:"ATTENTO_POLL_SECONDS, default=2"`
	TraceMode   string `env:"ATTENTO_TRACE_MODE, default=honeycomb"`
	TUI         bool   `env:"ATTENTO_TUI, default=false"`
}

// LoadAppConfig fills AppConfig from the process environment
func LoadAppConfig(ctx context.Context) (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		slog.Error("Could not process environment", slog.Any("Error", err))
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigFileName pulls a given filename config off local disk
// Validation is performed on the file before opening
func LoadConfigFileName(filename string) ([]ConfigFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("Error", err))
		return nil, err
	}

	return LoadConfig(file)
}

func validateLoad(file *os.File) error {
	// validate file
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	// validate size
	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

func LoadConfig(file *os.File) ([]ConfigFile, error) {
	// open file
	cf, err := os.Open(file.Name())
	if err != nil {
		slog.Error("could not open file")
		return nil, err
	}
	defer cf.Close()

	// decode json
	var config []ConfigFile
	decoder := json.NewDecoder(cf)
	if err := decoder.Decode(&config); err != nil {
		slog.Error("could not decode file")
		return nil, err
	}

	// a room with no camera count gets one camera
	for i := range config {
		if config[i].Cameras < 1 {
			config[i].Cameras = 1
		}
	}

	return config, nil
}
