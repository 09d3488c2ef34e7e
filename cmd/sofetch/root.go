package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"sofetch/internal/config"
	"sofetch/internal/diary"
	"sofetch/internal/interceptor"
	"sofetch/internal/logging"
	"sofetch/internal/metrics"
	"sofetch/internal/storage"
)

type app struct {
	configPath string
	diaryPath  string
	logLevel   string

	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "sofetch",
		Short:         "Inspect and record HTTP diary fixtures",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVarP(&a.diaryPath, "diary", "d", "", "diary file (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newListCmd(a),
		newMatchCmd(a),
		newVerifyCmd(a),
		newExportCmd(a),
		newFetchCmd(a),
		newJournalCmd(a),
	)
	return root
}

func (a *app) init() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(a.configPath)
		if err != nil {
			return err
		}
	} else {
		a.cfg = config.Default()
		config.ApplyEnv(a.cfg)
	}
	if a.diaryPath != "" {
		a.cfg.Fixture = a.diaryPath
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	if err := config.Validate(a.cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.log = logging.New(a.cfg.Logging())
	return nil
}

func (a *app) openDiary() (*diary.Diary, error) {
	return diary.Open(a.cfg.Fixture, diary.WithLogger(a.log))
}

func (a *app) openJournal(path string) (*storage.Store, error) {
	if path == "" {
		path = a.cfg.Journal.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no journal configured (set journal.path or --db)")
	}
	return storage.New(path)
}

// newInterceptor builds an interceptor from the loaded config. The returned
// cleanup closes the journal, if any.
func (a *app) newInterceptor(reg *prometheus.Registry) (*interceptor.Interceptor, func(), error) {
	opts := []interceptor.Option{
		interceptor.WithLogger(a.log),
		interceptor.WithRecordFilter(a.cfg.RecordFilter()),
	}
	if reg != nil {
		opts = append(opts, interceptor.WithMetrics(metrics.New(reg)))
	}
	cleanup := func() {}
	if a.cfg.Journal.Path != "" {
		store, err := storage.New(a.cfg.Journal.Path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, interceptor.WithJournal(store))
		cleanup = func() {
			if err := store.Close(); err != nil {
				a.log.Warn("close journal", "error", err)
			}
		}
	}
	cfg, err := a.cfg.Interceptor()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	i, err := interceptor.New(http.DefaultTransport, cfg, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return i, cleanup, nil
}
