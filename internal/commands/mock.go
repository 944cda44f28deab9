package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"evalgo.org/adjvalet/internal/mockbackend"
	"evalgo.org/adjvalet/models"
)

func newMockBackendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock-backend",
		Short: "Run an in-memory ADJ backend",
		Long: `Run an in-memory backend that speaks the ADJ backend API. It serves the
built-in demo document, or the --seed file, under the mock.seed_path path
and publishes its address in the discovery file.

Examples:
  adjvalet mock-backend
  adjvalet mock-backend --port 0 --seed adj.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMockBackend(cmd)
		},
	}

	f := cmd.Flags()
	f.String("host", "", "listen host")
	f.Int("port", 0, "listen port (0 picks a free port)")
	f.String("seed", "", "JSON document to serve instead of the demo")
	f.String("port-file", "", "where to write the discovery file")

	// These should never fail as flags are defined above
	_ = a.v.BindPFlag("mock.host", f.Lookup("host"))           //nolint:errcheck
	_ = a.v.BindPFlag("mock.port", f.Lookup("port"))           //nolint:errcheck
	_ = a.v.BindPFlag("mock.seed", f.Lookup("seed"))           //nolint:errcheck
	_ = a.v.BindPFlag("mock.port_file", f.Lookup("port-file")) //nolint:errcheck
	return cmd
}

func (a *app) runMockBackend(cmd *cobra.Command) error {
	mc := a.cfg.Mock

	seed, err := loadSeed(mc.Seed)
	if err != nil {
		return err
	}

	server := mockbackend.New(mockbackend.Options{
		Host:           mc.Host,
		Port:           mc.Port,
		RateLimit:      mc.RateLimit,
		AllowedOrigins: mc.AllowedOrigins,
		Debug:          mc.Debug,
		Logger:         a.logger,
	})
	server.Put(mc.SeedPath, seed)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := server.Start(); err != nil {
		return err
	}
	if mc.PortFile != "" {
		if err := server.WriteDiscoveryFile(mc.PortFile); err != nil {
			a.logger.Warn("failed to write discovery file", "path", mc.PortFile, "error", err)
		} else {
			defer os.Remove(mc.PortFile)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Mock backend listening on %s\n", server.URL())
	fmt.Fprintf(out, "  Load the demo with: adjvalet load %s\n", mc.SeedPath)

	<-ctx.Done()
	fmt.Fprintln(out, "\n⚠️  Shutdown signal received")

	// A fresh context: ctx is already cancelled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), mc.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// loadSeed reads a JSON document, comments allowed, or returns the demo
// document when path is empty.
func loadSeed(path string) (*models.ADJConfig, error) {
	if path == "" {
		return mockbackend.Demo()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed document: %w", err)
	}
	var cfg models.ADJConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode seed document: %w", err)
	}
	return &cfg, nil
}
