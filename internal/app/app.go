package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SsToRR/HourlyBot/internal/bot"
	"github.com/SsToRR/HourlyBot/internal/config"
	"github.com/SsToRR/HourlyBot/internal/domain"
	"github.com/SsToRR/HourlyBot/internal/scheduler"
	"github.com/SsToRR/HourlyBot/internal/store"
	"github.com/SsToRR/HourlyBot/internal/summarize"
	"github.com/SsToRR/HourlyBot/internal/teams"
)

// App wires the bot's components together.
type App struct {
	cfg        config.Config
	log        *zap.Logger
	repo       store.Repo
	dispatcher *bot.Dispatcher
	sched      *scheduler.Scheduler
	httpSrv    *http.Server
}

// New builds the full application: storage, transport, router, dispatcher,
// scheduler and the HTTP surface (webhook + healthz).
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	clock, err := domain.NewTZClock(cfg.TZ)
	if err != nil {
		return nil, err
	}
	slots, err := domain.ParseSlotList(cfg.SlotTimes)
	if err != nil {
		return nil, err
	}
	cal, err := domain.NewSlotCalendar(slots)
	if err != nil {
		return nil, err
	}

	repo, err := store.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	log.Info("sqlite ready", zap.String("path", cfg.DBPath))

	tokens := teams.NewTokenSource(cfg.BotAppID, cfg.BotAppPassword)
	sender := teams.NewSender(tokens, log)
	summarizer := summarize.New(cfg.OpenAIKey, cfg.OpenAIModel,
		time.Duration(cfg.SummarizeTimeoutSec)*time.Second)

	router := bot.NewRouter(repo, cal, clock, log)
	dispatcher := bot.NewDispatcher(repo, cal, clock, sender, summarizer, bot.DispatcherConfig{
		Question:      cfg.QuestionText,
		RetentionDays: cfg.RetentionDays,
		Workers:       cfg.DispatchWorkers,
		SendTimeout:   time.Duration(cfg.SendTimeoutSec) * time.Second,
	}, log)

	sched, err := scheduler.New(dispatcher, clock.Location(), scheduler.Config{
		DigestCron:    cfg.DigestCron,
		RetentionCron: cfg.RetentionCron,
	}, log)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/api/messages", teams.NewWebhook(router, sender, log))
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return &App{
		cfg:        cfg,
		log:        log,
		repo:       repo,
		dispatcher: dispatcher,
		sched:      sched,
		httpSrv:    srv,
	}, nil
}

// Dispatcher exposes the tick entry points for the admin CLI.
func (a *App) Dispatcher() *bot.Dispatcher { return a.dispatcher }

// Repo exposes the store for the admin CLI.
func (a *App) Repo() store.Repo { return a.repo }

// Close releases resources for non-serving (CLI) usage.
func (a *App) Close() error { return a.repo.Close() }

// Run starts the scheduler and webhook server and blocks until the context
// is canceled or an interrupt arrives.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting hourly check-in bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.cfg.TZ),
	)

	a.sched.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		a.log.Error("http server error", zap.Error(err))
		a.shutdown()
		return err
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		a.shutdown()
		return nil
	}
}

func (a *App) shutdown() {
	a.sched.Stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if err := a.repo.Close(); err != nil {
		a.log.Warn("store close error", zap.Error(err))
	}
}
