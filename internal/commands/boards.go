package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/adjvalet/internal/store"
	"evalgo.org/adjvalet/models"
)

func newBoardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "board",
		Aliases: []string{"boards"},
		Short:   "Add, rename and remove boards",
	}

	cmd.AddCommand(
		newBoardAddCmd(a),
		newBoardRemoveCmd(a),
		newBoardRenameCmd(a),
		newBoardSetIDCmd(a),
		newBoardSetIPCmd(a),
		newBoardListCmd(a),
	)
	return cmd
}

func newBoardAddCmd(a *app) *cobra.Command {
	var (
		id uint32
		ip string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an empty board",
		Long: `Add an empty board. Without --id the board gets the next free board id.

Examples:
  adjvalet board add BMSL --id 3 --ip 192.168.1.7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(func(st *store.Store) error {
				if !cmd.Flags().Changed("id") {
					id = nextBoardID(st.Assemble())
				}
				if err := st.AddBoard(args[0], models.BoardInfo{BoardID: id, BoardIP: ip}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Board %s added (id %d)\n", args[0], id)
				return nil
			})
		},
	}
	cmd.Flags().Uint32Var(&id, "id", 0, "board id")
	cmd.Flags().StringVar(&ip, "ip", "", "board IPv4 address")
	return cmd
}

// nextBoardID returns one more than the highest board id in use.
func nextBoardID(cfg *models.ADJConfig) uint32 {
	var next uint32
	for _, name := range cfg.BoardNames() {
		b, _ := cfg.Board(name)
		if b.BoardID >= next {
			next = b.BoardID + 1
		}
	}
	return next
}

func newBoardRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a board with its measurements and packets",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(func(st *store.Store) error {
				if err := st.RemoveBoard(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Board %s removed\n", args[0])
				return nil
			})
		},
	}
}

func newBoardRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(func(st *store.Store) error {
				if err := st.RenameBoard(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Board %s renamed to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newBoardSetIDCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-id <name> <id>",
		Short: "Change a board's id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid board id %q: %w", args[1], err)
			}
			return a.edit(func(st *store.Store) error {
				if err := st.SetBoardID(args[0], uint32(id)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Board %s id set to %d\n", args[0], id)
				return nil
			})
		},
	}
}

func newBoardSetIPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-ip <name> <ip>",
		Short: "Change a board's IP address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(func(st *store.Store) error {
				if err := st.SetBoardIP(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Board %s ip set to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newBoardListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List boards",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if err := s.requireConfig(); err != nil {
				return err
			}
			cfg := s.store.Assemble()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tID\tIP ADDRESS\tMEASUREMENTS\tPACKETS")
			for _, name := range cfg.BoardNames() {
				b, _ := cfg.Board(name)
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\n",
					name, b.BoardID, b.BoardIP, len(b.Measurements), len(b.Packets))
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d boards\n", cfg.Len())
			return nil
		},
	}
}
