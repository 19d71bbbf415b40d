// Package app assembles and runs the service: store, registry, media
// index, HTTP servers and background sweeps.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"timelined/internal/sweep"
	"timelined/pkg/api"
	"timelined/pkg/banner"
	"timelined/pkg/config"
	"timelined/pkg/httpx"
	"timelined/pkg/logger"
	"timelined/pkg/mediaindex"
	"timelined/pkg/models"
	"timelined/pkg/shutdown"
	"timelined/pkg/store"
	"timelined/pkg/telemetry"
	"timelined/pkg/timeline"
)

// Version is stamped at build time.
var Version = "dev"

type App struct {
	cfg     *config.Config
	reg     *timeline.Registry
	media   *mediaindex.Index
	sweeper *sweep.Sweeper
	server  *http.Server
	status  *httpx.FastStatusServer
	coord   *shutdown.Coordinator
}

// logTransport surfaces the engine's fetch hints in the log stream;
// an operator or an upstream poller acts on them.
type logTransport struct{}

func (logTransport) RequestDialogEntry(convID int64) {
	logger.Info("dialog_entry_needed", "conv", convID)
}

func (logTransport) RequestOlderMessages(convID int64, beforeID models.MsgID, limit int) {
	logger.Info("older_messages_needed", "conv", convID, "before", int64(beforeID), "limit", limit)
}

type logNotifier struct{}

func (logNotifier) NotifyUnread(convID int64, msg models.Message) {
	logger.Debug("unread_notification", "conv", convID, "msg", int64(msg.ID), "author", msg.AuthorID)
}

func New(cfg *config.Config) (*App, error) {
	if err := store.Open(cfg.DBPath); err != nil {
		return nil, err
	}
	media := mediaindex.New()
	reg := timeline.NewRegistry(timeline.Options{
		Media:     media,
		Notifier:  logNotifier{},
		Transport: logTransport{},
	})
	sweeper, err := sweep.New(reg, cfg.Sweep.PresenceCron, cfg.Sweep.SnapshotCron)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a := &App{
		cfg:     cfg,
		reg:     reg,
		media:   media,
		sweeper: sweeper,
		coord:   shutdown.New(),
	}
	a.warmLoad()
	a.server = &http.Server{
		Addr:              cfg.Listen(),
		Handler:           api.NewRouter(cfg, reg, media, systemClock{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if cfg.Server.StatusAddr != "" {
		a.status = httpx.NewFastStatusServer(store.Ready)
	}
	return a, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// warmLoad rebuilds the registry from stored snapshots so summaries
// survive a restart. Message blocks reload lazily through the API.
func (a *App) warmLoad() {
	ids, err := store.ListConversations()
	if err != nil {
		logger.Warn("warm_load_failed", "error", err.Error())
		return
	}
	for _, id := range ids {
		snap, ok, err := store.LoadSnapshot(id)
		if err != nil || !ok {
			continue
		}
		a.reg.Upsert(snap.Info, func(t *timeline.Timeline) {
			t.ApplyDialog(snap.Dialog)
			if snap.LocalDraft != nil {
				t.SetLocalDraft(snap.LocalDraft)
			}
			if snap.EditDraft != nil {
				t.SetEditDraft(snap.EditDraft)
			}
		})
	}
	telemetry.ActiveConversations.Set(float64(a.reg.Len()))
	logger.Info("warm_load_done", "conversations", len(ids))
}

// Run starts the servers and blocks until a shutdown signal.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	go a.sweeper.Run(ctx)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("server_started", "addr", a.cfg.Listen(), "version", Version)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if a.status != nil {
		go func() {
			if err := a.status.ListenAndServe(a.cfg.Server.StatusAddr); err != nil {
				errCh <- err
			}
		}()
	}
	banner.Print(Version, a.cfg.Listen())

	// hooks run newest-first: servers stop before state flushes, the
	// store closes last
	a.coord.Register("store", func(context.Context) error {
		return store.Close()
	})
	a.coord.Register("snapshots", func(context.Context) error {
		a.sweeper.FlushNow()
		return nil
	})
	a.coord.Register("sweeper", func(context.Context) error {
		cancel()
		return nil
	})
	if a.status != nil {
		a.coord.Register("status_server", func(context.Context) error {
			return a.status.Shutdown()
		})
	}
	a.coord.Register("http_server", func(ctx context.Context) error {
		return a.server.Shutdown(ctx)
	})

	done := make(chan struct{})
	go func() {
		a.coord.Wait(30 * time.Second)
		close(done)
	}()
	select {
	case err := <-errCh:
		a.coord.Trigger(30 * time.Second)
		return err
	case <-done:
		return nil
	}
}
