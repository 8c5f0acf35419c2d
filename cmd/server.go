package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brk3/habitkit/internal/config"
	"github.com/brk3/habitkit/internal/logger"
	"github.com/brk3/habitkit/internal/server"
	"github.com/brk3/habitkit/internal/storage"
	"github.com/brk3/habitkit/internal/storage/bolt"
	"github.com/brk3/habitkit/internal/storage/sqlite"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func openStore(c *config.Config) (storage.Store, error) {
	logger.Debug("Opening store", "driver", c.Storage.Driver, "path", c.Storage.Path)
	switch c.Storage.Driver {
	case "bolt":
		return bolt.Open(c.Storage.Path)
	case "sqlite":
		return sqlite.Open(c.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
}

func startServer(cmd *cobra.Command) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	srv, err := server.New(cfg, store, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}
