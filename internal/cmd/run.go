package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/benresonance-star/Task-Checker-sub001/internal/config"
	"github.com/benresonance-star/Task-Checker-sub001/internal/coordination"
	"github.com/benresonance-star/Task-Checker-sub001/internal/event"
	"github.com/benresonance-star/Task-Checker-sub001/internal/logging"
	"github.com/benresonance-star/Task-Checker-sub001/internal/store"
	"github.com/benresonance-star/Task-Checker-sub001/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a coordination session with the dashboard",
	Long: `Run starts a coordination session as the given user: it loads the
shared data directory, starts the timer tick loop and the remote-update
watcher, and opens the interactive dashboard.`,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// buildHub assembles the store, logger, bus, and hub from configuration.
// Callers own the returned logger's lifetime.
func buildHub(opts ...coordination.Option) (*coordination.Hub, *event.Bus, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	userID := viper.GetString("user")
	if userID == "" {
		return nil, nil, nil, fmt.Errorf("no user ID: pass --user or set TASKCHECKER_USER")
	}

	dataDir := cfg.Store.ResolveDataDir()

	var logger *logging.Logger
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(dataDir, cfg.Logging.Level)
		if err != nil {
			return nil, nil, nil, err
		}
	} else {
		logger = logging.NopLogger()
	}

	fileStore, err := store.NewFileStore(dataDir)
	if err != nil {
		logger.Close()
		return nil, nil, nil, err
	}

	bus := event.NewBus()
	hubOpts := append([]coordination.Option{
		coordination.WithTickInterval(cfg.Timer.TickInterval()),
		coordination.WithSyncEveryTicks(cfg.Timer.SyncEveryTicks),
		coordination.WithHeartbeatInterval(cfg.Presence.PublishInterval()),
		coordination.WithLivenessWindow(cfg.Presence.LivenessWindow()),
		coordination.WithWriteRetries(cfg.Store.WriteRetries),
		coordination.WithWriteBackoff(cfg.Store.WriteBackoff()),
		coordination.WithWatchDir(dataDir),
	}, opts...)

	hub, err := coordination.NewHub(coordination.Config{
		Bus:           bus,
		Store:         fileStore,
		Logger:        logger,
		CurrentUserID: userID,
	}, hubOpts...)
	if err != nil {
		logger.Close()
		return nil, nil, nil, err
	}

	return hub, bus, logger, nil
}

func runSession(cmd *cobra.Command, args []string) error {
	hub, bus, logger, err := buildHub()
	if err != nil {
		return err
	}
	defer logger.Close()

	if err := hub.Start(context.Background()); err != nil {
		return err
	}
	defer hub.Stop()

	program := tea.NewProgram(tui.NewModel(hub, bus), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
