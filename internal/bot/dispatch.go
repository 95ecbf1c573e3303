package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SsToRR/HourlyBot/internal/domain"
	"github.com/SsToRR/HourlyBot/internal/store"
)

// Sender delivers a proactive message to a user's conversation.
type Sender interface {
	Send(ctx context.Context, conversationRef, text string) error
}

// Summarizer produces a short natural-language summary of a digest prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// DispatcherConfig tunes the scheduled tick behaviour.
type DispatcherConfig struct {
	Question      string
	RetentionDays int
	Workers       int           // bound on concurrent per-user operations
	SendTimeout   time.Duration // per outbound send
}

// Dispatcher implements the scheduled tick entry points: asking slot
// questions, composing the daily digest, and retention cleanup.
type Dispatcher struct {
	repo       store.Repo
	cal        *domain.SlotCalendar
	clock      domain.Clock
	sender     Sender
	summarizer Summarizer
	log        *zap.Logger
	cfg        DispatcherConfig
}

// NewDispatcher wires the tick entry points.
func NewDispatcher(repo store.Repo, cal *domain.SlotCalendar, clock domain.Clock, sender Sender, summarizer Summarizer, cfg DispatcherConfig, log *zap.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	return &Dispatcher{
		repo:       repo,
		cal:        cal,
		clock:      clock,
		sender:     sender,
		summarizer: summarizer,
		log:        log,
		cfg:        cfg,
	}
}

// forEachActive runs fn for every active user with bounded concurrency.
// Per-user failures are fn's business; one slow or broken user must not
// block the rest of the batch.
func (d *Dispatcher) forEachActive(ctx context.Context, users []domain.User, fn func(ctx context.Context, u domain.User)) {
	sem := make(chan struct{}, d.cfg.Workers)
	var wg sync.WaitGroup
	for _, u := range users {
		u := u
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, u)
		}()
	}
	wg.Wait()
}

// OnDispatchTick asks the current slot's question to every active user.
// Ticks that do not land exactly on a configured slot minute are no-ops, so
// the caller may fire it every minute without double-asking.
func (d *Dispatcher) OnDispatchTick(ctx context.Context) error {
	now := d.clock.Now()
	if !d.cal.IsDispatchTick(now) {
		return nil
	}
	slot, _ := d.cal.Resolve(now) // equals the tick's own minute by the gate above
	return d.askSlot(ctx, domain.DateOf(now), slot)
}

// AskNow asks the latest elapsed slot's question immediately, bypassing the
// exact-minute gate. Used by the admin CLI to test delivery.
func (d *Dispatcher) AskNow(ctx context.Context) error {
	now := d.clock.Now()
	slot, ok := d.cal.Resolve(now)
	if !ok {
		return fmt.Errorf("no slot has elapsed yet today (first is %s)", d.cal.Slots()[0])
	}
	return d.askSlot(ctx, domain.DateOf(now), slot)
}

func (d *Dispatcher) askSlot(ctx context.Context, date string, slot domain.Slot) error {
	users, err := d.repo.ActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("dispatch tick: %w", err)
	}
	d.log.Info("dispatching slot question",
		zap.String("slot", slot.String()),
		zap.String("date", date),
		zap.Int("users", len(users)),
	)

	d.forEachActive(ctx, users, func(ctx context.Context, u domain.User) {
		// The placeholder is written before (and regardless of) the send, so
		// a late answer still matches the slot even if delivery failed.
		if err := d.repo.UpsertPlaceholder(ctx, u.ID, date, slot); err != nil {
			d.log.Error("placeholder write failed",
				zap.String("user", u.ID),
				zap.String("slot", slot.String()),
				zap.Error(err),
			)
		}
		d.send(ctx, u, d.cfg.Question)
	})
	return nil
}

// OnDigestTick sends each active user an AI summary of today's answers.
// Users with no responses for the day are skipped without calling the
// summarizer.
func (d *Dispatcher) OnDigestTick(ctx context.Context) error {
	now := d.clock.Now()
	date := domain.DateOf(now)

	users, err := d.repo.ActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("digest tick: %w", err)
	}
	d.log.Info("composing daily digests", zap.String("date", date), zap.Int("users", len(users)))

	d.forEachActive(ctx, users, func(ctx context.Context, u domain.User) {
		responses, err := d.repo.ListResponses(ctx, u.ID, date)
		if err != nil {
			d.log.Error("list responses failed", zap.String("user", u.ID), zap.Error(err))
			return
		}
		prompt, ok := domain.BuildDigestPrompt(responses)
		if !ok {
			d.log.Debug("nothing to summarize", zap.String("user", u.ID), zap.String("date", date))
			return
		}
		summary, err := d.summarizer.Summarize(ctx, prompt)
		if err != nil {
			d.log.Error("summary unavailable", zap.String("user", u.ID), zap.Error(err))
			return
		}
		d.send(ctx, u, digestHeaderText(u.Name)+summary)
	})
	return nil
}

// OnRetentionTick deletes responses older than the retention window.
func (d *Dispatcher) OnRetentionTick(ctx context.Context) error {
	cutoff := domain.DateOf(d.clock.Now().AddDate(0, 0, -d.cfg.RetentionDays))
	n, err := d.repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("retention tick: %w", err)
	}
	d.log.Info("purged old responses", zap.String("cutoff", cutoff), zap.Int64("deleted", n))
	return nil
}

// OnHealthTick logs a liveness line with the active-user count.
func (d *Dispatcher) OnHealthTick(ctx context.Context) error {
	users, err := d.repo.ActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("health tick: %w", err)
	}
	d.log.Info("health check", zap.Int("active_users", len(users)))
	return nil
}

// send delivers text to one user with a bounded timeout. Failures are logged
// and swallowed: delivery errors are per-user and never abort a batch.
func (d *Dispatcher) send(ctx context.Context, u domain.User, text string) {
	if u.ConversationRef == "" {
		d.log.Warn("no conversation reference, skipping send",
			zap.String("user", u.ID),
			zap.Error(domain.ErrNoConversationRef),
		)
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()
	if err := d.sender.Send(sendCtx, u.ConversationRef, text); err != nil {
		d.log.Error("send failed", zap.String("user", u.ID), zap.Error(err))
	}
}
