package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SsToRR/HourlyBot/internal/domain"
)

func newTestDispatcher(t *testing.T, repo *memRepo, clock fakeClock, sender *fakeSender, sum *fakeSummarizer) *Dispatcher {
	t.Helper()
	cfg := DispatcherConfig{
		Question:      "What are you doing right now?",
		RetentionDays: 30,
		Workers:       4,
		SendTimeout:   time.Second,
	}
	return NewDispatcher(repo, testCalendar(t), clock, sender, sum, cfg, zap.NewNop())
}

func subscribeWithRef(t *testing.T, repo *memRepo, id, ref string) {
	t.Helper()
	ctx := context.Background()
	_, err := repo.Subscribe(ctx, id, id)
	require.NoError(t, err)
	require.NoError(t, repo.TouchContact(ctx, id, id, ref))
	// TouchContact never flips the active flag.
	u, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	require.True(t, u.Active)
}

func TestOnDispatchTick_OffGridMinuteIsNoop(t *testing.T) {
	repo := newMemRepo()
	sender := &fakeSender{}
	subscribeWithRef(t, repo, "u1", "ref1")

	d := newTestDispatcher(t, repo, clockAt(9, 31), sender, &fakeSummarizer{})
	require.NoError(t, d.OnDispatchTick(context.Background()))

	assert.Empty(t, sender.messages(), "off-grid tick must not send")
	assert.Zero(t, repo.responseCount(), "off-grid tick must not create placeholders")
}

func TestOnDispatchTick_AsksEveryActiveUser(t *testing.T) {
	repo := newMemRepo()
	sender := &fakeSender{}
	subscribeWithRef(t, repo, "u1", "ref1")
	subscribeWithRef(t, repo, "u2", "ref2")
	// Unsubscribed users are not asked.
	subscribeWithRef(t, repo, "u3", "ref3")
	_, err := repo.Unsubscribe(context.Background(), "u3")
	require.NoError(t, err)

	d := newTestDispatcher(t, repo, clockAt(9, 30), sender, &fakeSummarizer{})
	require.NoError(t, d.OnDispatchTick(context.Background()))

	msgs := sender.messages()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, "What are you doing right now?", m.Text)
	}

	for _, id := range []string{"u1", "u2"} {
		resp, ok := repo.response(id, "2025-05-05", domain.Slot(9*60+30))
		require.True(t, ok, "placeholder missing for %s", id)
		assert.False(t, resp.Answered())
	}
	_, ok := repo.response("u3", "2025-05-05", domain.Slot(9*60+30))
	assert.False(t, ok)
}

func TestOnDispatchTick_SendFailureDoesNotBlockOthers(t *testing.T) {
	repo := newMemRepo()
	sender := &fakeSender{failRefs: map[string]bool{"ref1": true}}
	subscribeWithRef(t, repo, "u1", "ref1")
	subscribeWithRef(t, repo, "u2", "ref2")

	d := newTestDispatcher(t, repo, clockAt(9, 0), sender, &fakeSummarizer{})
	require.NoError(t, d.OnDispatchTick(context.Background()))

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ref2", msgs[0].Ref)

	// The placeholder is written even when delivery fails, so a late answer
	// still matches the slot.
	_, ok := repo.response("u1", "2025-05-05", domain.Slot(9*60))
	assert.True(t, ok)
}

func TestOnDispatchTick_UserWithoutRefStillGetsPlaceholder(t *testing.T) {
	repo := newMemRepo()
	sender := &fakeSender{}
	subscribeWithRef(t, repo, "u1", "")

	d := newTestDispatcher(t, repo, clockAt(9, 0), sender, &fakeSummarizer{})
	require.NoError(t, d.OnDispatchTick(context.Background()))

	assert.Empty(t, sender.messages())
	_, ok := repo.response("u1", "2025-05-05", domain.Slot(9*60))
	assert.True(t, ok)
}

func TestOnDigestTick_SkipsUsersWithoutResponses(t *testing.T) {
	repo := newMemRepo()
	sender := &fakeSender{}
	sum := &fakeSummarizer{reply: "a productive day"}
	subscribeWithRef(t, repo, "u1", "ref1")

	d := newTestDispatcher(t, repo, clockAt(17, 0), sender, sum)
	require.NoError(t, d.OnDigestTick(context.Background()))

	assert.Zero(t, sum.callCount(), "summarizer must not run on zero data points")
	assert.Empty(t, sender.messages())
}

func TestOnDigestTick_SendsSummary(t *testing.T) {
	repo := newMemRepo()
	sender := &fakeSender{}
	sum := &fakeSummarizer{reply: "a productive day"}
	subscribeWithRef(t, repo, "u1", "ref1")
	_, err := repo.RecordAnswer(context.Background(), "u1", "2025-05-05", domain.Slot(9*60), "coding")
	require.NoError(t, err)

	d := newTestDispatcher(t, repo, clockAt(17, 0), sender, sum)
	require.NoError(t, d.OnDigestTick(context.Background()))

	assert.Equal(t, 1, sum.callCount())
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "a productive day")
	assert.Contains(t, msgs[0].Text, "Daily report")
}

func TestOnDigestTick_SummarizerFailureIsPerUser(t *testing.T) {
	repo := newMemRepo()
	sender := &fakeSender{}
	sum := &fakeSummarizer{err: errors.New("model overloaded")}
	subscribeWithRef(t, repo, "u1", "ref1")
	_, err := repo.RecordAnswer(context.Background(), "u1", "2025-05-05", domain.Slot(9*60), "coding")
	require.NoError(t, err)

	d := newTestDispatcher(t, repo, clockAt(17, 0), sender, sum)
	require.NoError(t, d.OnDigestTick(context.Background()), "summarizer failure must not fail the tick")
	assert.Empty(t, sender.messages())
}

func TestOnRetentionTick(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	_, err := repo.RecordAnswer(ctx, "u1", "2025-04-04", domain.Slot(9*60), "31 days ago")
	require.NoError(t, err)
	_, err = repo.RecordAnswer(ctx, "u1", "2025-04-06", domain.Slot(9*60), "29 days ago")
	require.NoError(t, err)

	d := newTestDispatcher(t, repo, clockAt(12, 0), &fakeSender{}, &fakeSummarizer{})
	require.NoError(t, d.OnRetentionTick(ctx))

	_, ok := repo.response("u1", "2025-04-04", domain.Slot(9*60))
	assert.False(t, ok, "31-day-old response must be purged")
	_, ok = repo.response("u1", "2025-04-06", domain.Slot(9*60))
	assert.True(t, ok, "29-day-old response must be kept")
}

func TestOnDispatchTick_ActiveUsersFailurePropagates(t *testing.T) {
	repo := newMemRepo()
	repo.failActive = errors.New("db locked")

	d := newTestDispatcher(t, repo, clockAt(9, 0), &fakeSender{}, &fakeSummarizer{})
	assert.Error(t, d.OnDispatchTick(context.Background()))
}
