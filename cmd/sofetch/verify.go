package main

import (
	"errors"
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sofetch/internal/replay"
)

var errStale = errors.New("stale diary entries")

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Re-issue every diary entry and compare live status codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.openDiary()
			if err != nil {
				return err
			}
			results, err := replay.VerifyAll(cmd.Context(), http.DefaultTransport, d.Entries())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			stale := 0
			for _, r := range results {
				state := "fresh"
				if !r.Fresh() {
					state = "stale"
					stale++
				}
				detail := fmt.Sprintf("%d -> %d", r.WantStatus, r.Status)
				if r.Error != "" {
					detail = r.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\n", state, r.Method, r.URL, detail, r.DurationMs)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if stale > 0 {
				return fmt.Errorf("%w: %d of %d", errStale, stale, len(results))
			}
			return nil
		},
	}
}
