package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sofetch/internal/har"
	"sofetch/internal/types"
)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List diary entries in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.openDiary()
			if err != nil {
				return err
			}
			entries := d.Entries()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tMETHOD\tURL\tCONTENT-TYPE\tSTATUS")
			for n, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", n, e.Method(), e.Req.Input, e.ContentType(), e.Status())
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func newMatchCmd(a *app) *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "match METHOD URL",
		Short: "Show which entry a request would be answered with",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.openDiary()
			if err != nil {
				return err
			}
			c := types.Candidate{Method: args[0], URL: args[1], ContentType: contentType}
			e, ok := d.FindMatch(c)
			if !ok {
				return fmt.Errorf("no matching diary entry for %s", c)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %d\n", e.Status())
			for k, v := range e.Res.Options.Headers {
				fmt.Fprintf(out, "%s: %s\n", k, v)
			}
			fmt.Fprintln(out)
			_, err = out.Write(e.ResponseBody())
			return err
		},
	}
	cmd.Flags().StringVarP(&contentType, "content-type", "t", "", "request Content-Type")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-har",
		Short: "Export the diary as a HAR document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.openDiary()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(har.FromEntries(d.Entries(), time.Now().UTC()))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
