package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/SsToRR/HourlyBot/internal/domain"
	"github.com/SsToRR/HourlyBot/internal/store"
)

// ErrEmptyInbound marks a message without identity or text. The webhook layer
// rejects these before routing; the check here is the contract of last resort.
var ErrEmptyInbound = errors.New("inbound message missing user id or text")

// Inbound is a single user message as delivered by the transport layer.
type Inbound struct {
	UserID          string
	Name            string
	Text            string
	ConversationRef string // opaque serialized reference for later proactive sends
}

// Router classifies inbound messages as commands or free-text answers and
// produces the reply text. It is stateless across messages; all persistent
// state lives in the store.
type Router struct {
	repo  store.Repo
	cal   *domain.SlotCalendar
	clock domain.Clock
	log   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-user in-flight serialization
}

// NewRouter creates a message router.
func NewRouter(repo store.Repo, cal *domain.SlotCalendar, clock domain.Clock, log *zap.Logger) *Router {
	return &Router{
		repo:  repo,
		cal:   cal,
		clock: clock,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing message handling for one user.
// Messages from different users run concurrently; two near-simultaneous
// answers from the same user must not race on the same slot row.
func (r *Router) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	return l
}

// Handle routes one inbound message and returns the reply text. A non-nil
// error means something went wrong internally; the reply is still valid and
// must be delivered to the user.
func (r *Router) Handle(ctx context.Context, in Inbound) (string, error) {
	if in.UserID == "" || strings.TrimSpace(in.Text) == "" {
		return "", ErrEmptyInbound
	}

	lock := r.userLock(in.UserID)
	lock.Lock()
	defer lock.Unlock()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Unknown User"
	}

	// Refresh reachability on every message, command or not, so proactive
	// sends always use the freshest conversation reference.
	if err := r.repo.TouchContact(ctx, in.UserID, name, in.ConversationRef); err != nil {
		r.log.Error("touch contact failed", zap.String("user", in.UserID), zap.Error(err))
	}

	text := strings.TrimSpace(in.Text)
	switch strings.ToLower(text) {
	case cmdSubscribe:
		return r.handleSubscribe(ctx, in.UserID, name)
	case cmdUnsubscribe:
		return r.handleUnsubscribe(ctx, in.UserID, name)
	default:
		return r.handleAnswer(ctx, in.UserID, text)
	}
}

func (r *Router) handleSubscribe(ctx context.Context, userID, name string) (string, error) {
	outcome, err := r.repo.Subscribe(ctx, userID, name)
	if err != nil {
		r.log.Error("subscribe failed", zap.String("user", userID), zap.Error(err))
		return couldNotSaveText, err
	}
	switch outcome {
	case domain.SubscribedAlready:
		return alreadySubscribedText(name), nil
	case domain.SubscribedAgain:
		r.log.Info("user reactivated", zap.String("user", userID))
		return resubscribedText(name), nil
	default:
		r.log.Info("new user subscribed", zap.String("user", userID))
		return welcomeText(name, r.cal.Slots()), nil
	}
}

func (r *Router) handleUnsubscribe(ctx context.Context, userID, name string) (string, error) {
	ok, err := r.repo.Unsubscribe(ctx, userID)
	if err != nil {
		r.log.Error("unsubscribe failed", zap.String("user", userID), zap.Error(err))
		return couldNotSaveText, err
	}
	if !ok {
		return notSubscribedText, nil
	}
	r.log.Info("user unsubscribed", zap.String("user", userID))
	return goodbyeText(name), nil
}

func (r *Router) handleAnswer(ctx context.Context, userID, text string) (string, error) {
	u, err := r.repo.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		r.log.Error("get user failed", zap.String("user", userID), zap.Error(err))
		return couldNotSaveText, err
	}
	if u == nil || !u.Active {
		// Normal routed outcome, not a failure: text from inactive users is
		// never recorded.
		return subscribePromptText, domain.ErrNotSubscribed
	}

	now := r.clock.Now()
	slot, ok := r.cal.Resolve(now)
	if !ok {
		// No slot has elapsed yet today; acknowledge without recording.
		return genericAckText, nil
	}

	outcome, err := r.repo.RecordAnswer(ctx, userID, domain.DateOf(now), slot, text)
	if err != nil {
		r.log.Error("record answer failed",
			zap.String("user", userID),
			zap.String("slot", slot.String()),
			zap.Error(err),
		)
		return couldNotSaveText, err
	}
	if outcome == domain.RecordUpdated {
		return updatedText(slot, text), nil
	}
	return recordedText(slot, text), nil
}
