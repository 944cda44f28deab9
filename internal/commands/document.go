package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"evalgo.org/adjvalet/models"
)

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load [path]",
		Short: "Load an ADJ from the backend",
		Long: `Point the backend at an ADJ directory and fetch the assembled document.

Without a path the last loaded path is reused.

Examples:
  adjvalet load /home/pod/adj
  adjvalet load`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if err := s.store.Load(cmd.Context(), path); err != nil {
				return err
			}

			st := s.store.State()
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Loaded %s (%d boards) from %s\n",
				st.ConfigPath, st.Config.Len(), s.client.Addr())
			return nil
		},
	}
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Validate the edited document and save it to the backend",
		Long: `Assign ids to packets that have none, validate the document and send it
to the backend. The backend's copy then replaces the local one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if err := s.requireConfig(); err != nil {
				return err
			}
			if err := s.store.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %d boards to %s\n",
				s.store.Assemble().Len(), s.client.Addr())
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if err := s.requireConfig(); err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), s.store.Assemble(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "json", "output format (json, yaml)")
	return cmd
}

// writeDocument prints cfg in its wire form, as JSON or converted to YAML.
func writeDocument(w io.Writer, cfg *models.ADJConfig, format string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	switch strings.ToLower(format) {
	case "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown format %q (use json or yaml)", format)
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the loaded document and path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if err := s.store.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Session reset")
			return nil
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			if !c.HealthCheck(cmd.Context()) {
				return fmt.Errorf("backend at %s is not healthy", c.Addr())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Backend healthy at %s\n", c.Addr())
			return nil
		},
	}
}

func newDiscoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Locate the backend and print its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			addr, err := c.Discover(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}
