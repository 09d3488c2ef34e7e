package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newJournalCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the exchange journal",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "journal file (overrides config)")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show recent exchanges, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openJournal(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			exchanges, err := store.List(limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tSOURCE\tMETHOD\tURL\tSTATUS\tRECORDED\tERROR")
			for _, x := range exchanges {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\t%s\n",
					x.StartedAt.Format("15:04:05.000"), x.Source, x.Method, x.URL, x.Status, x.Recorded, x.Error)
			}
			return w.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of exchanges")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every journal record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openJournal(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.DeleteAll()
		},
	}

	cmd.AddCommand(list, clearCmd)
	return cmd
}
