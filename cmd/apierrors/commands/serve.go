package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/commerceapi/apierrors"
	"git.home.luguber.info/inful/commerceapi/internal/config"
	"git.home.luguber.info/inful/commerceapi/internal/events"
	"git.home.luguber.info/inful/commerceapi/internal/journal"
	"git.home.luguber.info/inful/commerceapi/internal/metrics"
	"git.home.luguber.info/inful/commerceapi/internal/retry"
)

const defaultJournalLimit = 50

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Listen   string        `short:"l" help:"Address to listen on" default:"127.0.0.1:8080"`
	Watch    bool          `short:"w" help:"Reload the configuration file when it changes"`
	Debounce time.Duration `help:"Quiet period before a changed configuration is reloaded" default:"2s"`
}

// Run executes the serve command until SIGINT or SIGTERM.
func (cmd *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := g.logger()
	cfg := root.Settings()
	reg := prom.NewRegistry()
	var opts []HandlerOption

	if cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open failure journal: %w", err)
		}
		defer func() { _ = store.Close() }()
		opts = append(opts, WithJournal(store))

		if cfg.Journal.Retention > 0 {
			pruner, err := journal.NewPruner(store, cfg.Journal.Retention, cfg.Journal.PruneInterval, logger)
			if err != nil {
				return fmt.Errorf("schedule journal pruning: %w", err)
			}
			pruner.Start()
			defer func() { _ = pruner.Stop() }()
		}
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		opts = append(opts, WithSinks(pub))
	}

	handler := newReloadableHandler(cfg, logger, reg, opts...)

	if cmd.Watch {
		if root.Config == "" {
			return errors.New("--watch requires --config")
		}
		watcher, err := config.NewWatcher(root.Config, cmd.Debounce, logger, handler.Reload)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
	}

	srv := &http.Server{
		Addr:         cmd.Listen,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()
	logger.Info("Serving failure replies", "addr", cmd.Listen)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping server...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}

// HandlerOption configures the handler built by NewHandler.
type HandlerOption func(*handlerDeps)

// WithJournal records every failure in store and exposes it under /journal.
func WithJournal(store *journal.Store) HandlerOption {
	return func(d *handlerDeps) {
		d.journal = store
		d.sinks = append(d.sinks, store)
	}
}

// WithSinks forwards every failure to the given sinks.
func WithSinks(sinks ...apierrors.Sink) HandlerOption {
	return func(d *handlerDeps) { d.sinks = append(d.sinks, sinks...) }
}

// handlerDeps outlive configuration reloads. The recorder in particular is
// registered once.
type handlerDeps struct {
	logger   *slog.Logger
	registry *prom.Registry
	recorder metrics.Recorder
	metrics  bool
	journal  *journal.Store
	sinks    []apierrors.Sink
}

func newHandlerDeps(cfg *config.Config, logger *slog.Logger, reg *prom.Registry, opts []HandlerOption) *handlerDeps {
	d := &handlerDeps{logger: logger, registry: reg, recorder: metrics.NoopRecorder{}}
	if cfg.Metrics.Enabled {
		d.recorder = metrics.NewPrometheusRecorder(reg, cfg.Metrics.Namespace)
		d.metrics = true
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewHandler wires the classifier, retry advisor and HTTP adapter behind:
//
//	GET /catalog          the failure catalog as JSON
//	GET /failures/{kind}  the reply for a failure of that kind
//	GET /classify         the reply for a response given by status, retry_after and body
//	GET /journal          recent failures, newest first, when a journal is configured
//	GET /journal/counts   failures per kind, when a journal is configured
//	GET /metrics          Prometheus metrics, when enabled
func NewHandler(cfg *config.Config, logger *slog.Logger, reg *prom.Registry, opts ...HandlerOption) http.Handler {
	return newMux(cfg, newHandlerDeps(cfg, logger, reg, opts))
}

func newMux(cfg *config.Config, d *handlerDeps) *http.ServeMux {
	adapterOpts := []apierrors.HTTPAdapterOption{
		apierrors.WithRecorder(d.recorder),
		apierrors.WithDetails(cfg.Adapter.ExposeDetails),
	}
	for _, s := range d.sinks {
		adapterOpts = append(adapterOpts, apierrors.WithSink(s))
	}
	adapter := apierrors.NewHTTPErrorAdapter(d.logger, adapterOpts...)
	advisor := retry.NewAdvisor(retry.FromConfig(cfg.Retry), d.recorder)
	classifier := apierrors.NewClassifier(apierrors.ClassifierOptions{
		BodyLimit:         cfg.Classifier.BodyLimit,
		RetriableStatuses: cfg.Classifier.RetriableStatuses,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /catalog", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, apierrors.Catalog())
	})

	mux.HandleFunc("GET /failures/{kind}", func(w http.ResponseWriter, r *http.Request) {
		kind := apierrors.Kind(r.PathValue("kind"))
		f, ok := apierrors.FromKind(kind, r.URL.Query().Get("message"))
		if !ok {
			adapter.WriteErrorResponse(w, r, apierrors.NewInvalidRequest(fmt.Sprintf("unknown failure kind %q", kind)))
			return
		}
		adapter.WriteErrorResponse(w, r, f)
	})

	mux.HandleFunc("GET /classify", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		status, err := strconv.Atoi(q.Get("status"))
		if err != nil {
			adapter.WriteErrorResponse(w, r, apierrors.NewMissingRequiredArgument("status must be an integer"))
			return
		}
		headers := http.Header{}
		if ra := q.Get("retry_after"); ra != "" {
			headers.Set("Retry-After", ra)
		}
		failure := classifier.ClassifyDescriptor(apierrors.ResponseDescriptor{
			Code:    status,
			Headers: headers,
			Body:    []byte(q.Get("body")),
		})
		if failure == nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{\"status\":\"ok\"}\n"))
			return
		}

		attempt, _ := strconv.Atoi(q.Get("attempt"))
		if dec := advisor.Advise(failure, max(attempt, 1)); dec.Retry {
			w.Header().Set("X-Retry-Delay-Ms", strconv.FormatInt(dec.Delay.Milliseconds(), 10))
		}
		adapter.WriteErrorResponse(w, r, failure)
	})

	if d.journal != nil {
		mux.HandleFunc("GET /journal", func(w http.ResponseWriter, r *http.Request) {
			limit := defaultJournalLimit
			if v := r.URL.Query().Get("limit"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n <= 0 {
					adapter.WriteErrorResponse(w, r, apierrors.NewInvalidRequest("limit must be a positive integer"))
					return
				}
				limit = n
			}
			evs, err := d.journal.Recent(r.Context(), limit)
			if err != nil {
				adapter.WriteErrorResponse(w, r, err)
				return
			}
			if evs == nil {
				evs = []apierrors.FailureEvent{}
			}
			writeJSON(w, evs)
		})
		mux.HandleFunc("GET /journal/counts", func(w http.ResponseWriter, r *http.Request) {
			counts, err := d.journal.CountByKind(r.Context())
			if err != nil {
				adapter.WriteErrorResponse(w, r, err)
				return
			}
			writeJSON(w, counts)
		})
	}

	if d.metrics {
		mux.Handle("GET /metrics", metrics.HTTPHandler(d.registry))
	}
	return mux
}

// reloadableHandler serves the mux built from the latest valid configuration.
type reloadableHandler struct {
	deps    *handlerDeps
	current atomic.Pointer[http.ServeMux]
}

func newReloadableHandler(cfg *config.Config, logger *slog.Logger, reg *prom.Registry, opts ...HandlerOption) *reloadableHandler {
	h := &reloadableHandler{deps: newHandlerDeps(cfg, logger, reg, opts)}
	h.current.Store(newMux(cfg, h.deps))
	return h
}

// Reload swaps in a mux built from cfg. Metrics and sinks keep their
// startup wiring.
func (h *reloadableHandler) Reload(cfg *config.Config) {
	h.current.Store(newMux(cfg, h.deps))
}

func (h *reloadableHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.current.Load().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
