package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# ADJ Valet Configuration

backend:
  # Pin the backend address; leave empty to discover it
  url: ""
  discovery_url: .adj-valet-port
  default_url: http://localhost:8000
  host: localhost
  port_start: 8000
  port_count: 20
  probe_timeout: 2s
  request_timeout: 5s
  probe_rate: 0

cache:
  # Defaults to ~/.adjvalet/state.yaml
  path: ""
  snapshot: true

mock:
  host: 127.0.0.1
  port: 8000
  seed: ""
  seed_path: demo
  port_file: .adj-valet-port
  rate_limit: 0
  allowed_origins:
    - "*"
  shutdown_timeout: 10s
  debug: false

logging:
  level: info
  format: text
  output: stderr
`

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Initialize configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "adjvalet.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(showCmd, initCmd)
	return cmd
}
