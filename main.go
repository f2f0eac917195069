package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	Md "github.com/maroda/attento/display"
	Mo "github.com/maroda/attento/obvy"
	Mp "github.com/maroda/attento/plugin"
	Ms "github.com/maroda/attento/server"
)

func main() {
	ctx := context.Background()

	cfg, err := Ms.LoadAppConfig(ctx)
	if err != nil {
		slog.Error("Could not load environment config", slog.Any("Error", err))
		os.Exit(1)
	}

	rooms, err := Ms.LoadConfigFileName(cfg.RoomConfig)
	if err != nil {
		slog.Error("Could not load room config", slog.String("File", cfg.RoomConfig), slog.Any("Error", err))
		os.Exit(1)
	}
	slog.Info("Attento initializing", slog.Int("Rooms", len(rooms)))

	// Tracing is optional, it only runs with the env set up
	if Ms.FillEnvVar("OTEL_EXPORTER_OTLP_ENDPOINT") != "ENOENT" {
		switch cfg.TraceMode {
		case "otlp":
			tp, err := Mo.InitOTelGRF()
			if err != nil {
				slog.Error("Could not configure tracing", slog.Any("Error", err))
			} else {
				defer tp.Shutdown(ctx)
			}
		default:
			shutdown, err := Mo.InitOTelHNY()
			if err != nil {
				slog.Error("Could not configure tracing", slog.Any("Error", err))
			} else {
				defer shutdown()
			}
		}
	}

	store, err := Mp.StoreLookup("badger", cfg.StorePath)
	if err != nil {
		// Analysis still works without durability
		slog.Error("Could not open store, continuing without persistence", slog.Any("Error", err))
		store = nil
	} else {
		defer store.Close()
	}

	monitor := Ms.NewMonitor(rooms,
		Ms.NewPoseClient(cfg.DetectorURL),
		Ms.NewDirSnapshots(cfg.SnapshotDir),
		store)
	monitor.RestoreFromStore()

	view, err := Md.NewView(monitor)
	if err != nil {
		slog.Error("Could not build view", slog.Any("Error", err))
		os.Exit(1)
	}

	interval := time.Duration(cfg.PollSeconds) * time.Second

	// Flush room state on the way out
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		slog.Info("Shutting down, flushing state")
		view.Shutdown()
		os.Exit(0)
	}()

	if cfg.TUI {
		err = view.StartRoomView(cfg.Addr, interval)
	} else {
		err = view.StartWeb(cfg.Addr, interval)
	}
	if err != nil {
		slog.Error("Problem running Attento", slog.Any("Error", err))
		os.Exit(1)
	}
}
