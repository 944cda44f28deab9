package commands

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/adjvalet/internal/store"
)

func newGeneralCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "general",
		Aliases: []string{"general-info", "gi"},
		Short:   "Edit the general info sections",
		Long: `Edit the general info sections (ports, addresses, units, message_ids, ...).
Values that parse as numbers are stored as numbers unless --string is set.`,
	}

	cmd.AddCommand(
		newGeneralSetCmd(a),
		newGeneralAddCmd(a),
		newGeneralRemoveCmd(a),
		newGeneralListCmd(a),
	)
	return cmd
}

func newGeneralSetCmd(a *app) *cobra.Command {
	var (
		rename   string
		asString bool
	)

	cmd := &cobra.Command{
		Use:   "set <section> <key> <value>",
		Short: "Set a key, optionally renaming it",
		Long: `Set a key in a section. The section is created if needed.

Examples:
  adjvalet general set ports TCP_SERVER 50500
  adjvalet general set ports new_key 50401 --rename UDP
  adjvalet general set addresses backend 192.168.0.9`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, key := args[0], args[1]
			newKey := key
			if rename != "" {
				newKey = rename
			}
			value := scalar(args[2], asString)

			return a.edit(func(st *store.Store) error {
				if err := st.UpdateGeneralInfoField(section, key, newKey, value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s.%s set to %v\n", section, newKey, value)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rename, "rename", "", "new name for the key")
	cmd.Flags().BoolVar(&asString, "string", false, "store the value as a string")
	return cmd
}

// scalar stores integers and floats as numbers and anything else as text.
func scalar(s string, asString bool) any {
	if asString {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func newGeneralAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <section>",
		Short: "Add a placeholder key to a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(func(st *store.Store) error {
				key, err := st.AddGeneralInfoField(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s.%s added\n", args[0], key)
				return nil
			})
		},
	}
}

func newGeneralRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <section> <key>",
		Aliases: []string{"rm"},
		Short:   "Remove a key from a section",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(func(st *store.Store) error {
				if err := st.RemoveGeneralInfoField(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s.%s removed\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newGeneralListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list [section]",
		Aliases: []string{"ls"},
		Short:   "List general info values",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if err := s.requireConfig(); err != nil {
				return err
			}
			info := s.store.Assemble().GeneralInfo

			sections := slices.Sorted(maps.Keys(info))
			if len(args) == 1 {
				if _, ok := info[args[0]]; !ok {
					return fmt.Errorf("unknown section %q", args[0])
				}
				sections = []string{args[0]}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SECTION\tKEY\tVALUE")
			for _, section := range sections {
				values := info[section]
				for _, key := range slices.Sorted(maps.Keys(values)) {
					fmt.Fprintf(w, "%s\t%s\t%v\n", section, key, values[key])
				}
			}
			return w.Flush()
		},
	}
}
