package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func historyCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := g.openStore()
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("history needs --db")
			}
			defer st.Close()
			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSEED\tQUBITS\tSIFTED\tQBER\tKEY BITS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.4f\t%d\n",
					r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Seed,
					r.NumQubits, r.SiftedBits, r.QBER, r.KeyBits)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "most recent runs to list (0 for all)")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print a recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := g.openStore()
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("history show needs --db")
			}
			defer st.Close()
			r, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}
	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := g.openStore()
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("history rm needs --db")
			}
			defer st.Close()
			return st.DeleteRun(cmd.Context(), args[0])
		},
	}
	cmd.AddCommand(show, rm)
	return cmd
}
