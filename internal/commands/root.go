package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalgo.org/adjvalet/internal/config"
	"evalgo.org/adjvalet/internal/logging"
	"evalgo.org/adjvalet/internal/version"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v        *viper.Viper
	cfgFile  string
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

// Execute runs the adjvalet command line.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "adjvalet",
		Short: "Edit ADJ configurations through the ADJ backend",
		Long: `ADJ Valet loads an ADJ configuration (general info, boards, measurements
and packets) from the ADJ backend, edits it locally with consistency checks,
and saves it back.

The loaded document is cached between invocations, so a typical session is:

  adjvalet load /path/to/adj
  adjvalet board add BMSL --id 3 --ip 192.168.1.7
  adjvalet save`,
		Version:            version.Version,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./adjvalet.yaml)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (json, text)")
	flags.String("backend-url", "", "backend address, disables discovery")
	flags.String("cache-file", "", "session state file (default: ~/.adjvalet/state.yaml)")

	// These should never fail as flags are defined above
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))   //nolint:errcheck
	_ = a.v.BindPFlag("logging.format", flags.Lookup("log-format")) //nolint:errcheck
	_ = a.v.BindPFlag("backend.url", flags.Lookup("backend-url"))   //nolint:errcheck
	_ = a.v.BindPFlag("cache.path", flags.Lookup("cache-file"))     //nolint:errcheck

	rootCmd.AddCommand(
		newLoadCmd(a),
		newSaveCmd(a),
		newShowCmd(a),
		newResetCmd(a),
		newHealthCmd(a),
		newDiscoverCmd(a),
		newValidateCmd(a),
		newBoardCmd(a),
		newMeasurementCmd(a),
		newPacketCmd(a),
		newGeneralCmd(a),
		newMockBackendCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWith(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	a.cfg = cfg

	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("error setting up logging: %w", err)
	}
	a.logger = logger
	a.closeLog = closeLog
	slog.SetDefault(logger)
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			info := version.Get()
			fmt.Fprintln(out, info.String())

			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				fmt.Fprintf(out, "\nDetails:\n")
				fmt.Fprintf(out, "  Version:    %s\n", info.Version)
				fmt.Fprintf(out, "  Git Commit: %s\n", info.GitCommit)
				fmt.Fprintf(out, "  Built:      %s\n", info.BuildTime)
				fmt.Fprintf(out, "  Go Version: %s\n", info.GoVersion)
				fmt.Fprintf(out, "  Platform:   %s\n", info.Platform)
			}
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "verbose version output")
	return cmd
}
