package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		method      string
		body        string
		contentType string
		showMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Send a request through the diary, recording it when missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reg *prometheus.Registry
			if showMetrics || a.cfg.Metrics.Enabled {
				reg = prometheus.NewRegistry()
			}
			i, cleanup, err := a.newInterceptor(reg)
			if err != nil {
				return err
			}
			defer cleanup()

			rt, err := i.Start(a.cfg.Fixture)
			if err != nil {
				return err
			}
			defer i.Stop()

			var rd io.Reader
			if body != "" {
				rd = strings.NewReader(body)
			}
			req, err := http.NewRequestWithContext(cmd.Context(), method, args[0], rd)
			if err != nil {
				return err
			}
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			resp, err := (&http.Client{Transport: rt}).Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Status)
			if _, err := io.Copy(out, resp.Body); err != nil {
				return err
			}
			fmt.Fprintln(out)

			if err := i.Err(); err != nil {
				a.log.Error("response not saved to diary", "error", err)
			}
			if reg != nil {
				return printMetrics(cmd.ErrOrStderr(), reg)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "request", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVar(&body, "data", "", "request body")
	cmd.Flags().StringVarP(&contentType, "content-type", "t", "", "request Content-Type")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print interceptor counters to stderr")
	return cmd
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
		}
	}
	return nil
}
