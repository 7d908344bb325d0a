package growth

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"zentok/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordedNotification struct {
	Author  string
	Kind    models.NotificationKind
	Message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []recordedNotification
}

func (f *fakeNotifier) Emit(author string, kind models.NotificationKind, message string) models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedNotification{Author: author, Kind: kind, Message: message})
	return models.Notification{AuthorHandle: author, Kind: kind, Message: message}
}

func (f *fakeNotifier) all() []recordedNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedNotification(nil), f.sent...)
}

func newTestClock(n Notifier) *Clock {
	return NewClock(ClockConfig{Interval: time.Hour, Now: func() time.Time { return epoch }, Rand: zeroRand{}}, n, nil)
}

func ownedRecord(id, author string, target models.Counters, poolSize int) *Record {
	post := models.Post{ID: id, AuthorHandle: author, CreatedAt: epoch}
	plan := models.GrowthPlan{PostID: id, Target: target, Exponent: 1.0, Pool: testPool(id, poolSize)}
	return NewRecord(post, plan)
}

// Сценарий E: без записей тик ничего не делает и таймер не взводится.
func TestClockIdleWithoutRecords(t *testing.T) {
	c := newTestClock(nil)
	defer c.Close()

	c.StartSession("me")
	assert.False(t, c.Running())

	res := c.Tick(epoch.Add(time.Minute))
	assert.False(t, res.Changed)
	assert.Empty(t, res.Reveals)
	assert.Empty(t, c.Snapshot())
}

func TestClockArming(t *testing.T) {
	c := newTestClock(nil)
	defer c.Close()

	c.Replace([]*Record{ownedRecord("p1", "me", models.Counters{Views: 100}, 1)})
	assert.False(t, c.Running(), "без сессии таймер не взводится")

	c.StartSession("me")
	assert.True(t, c.Running())
	c.StartSession("me")
	assert.True(t, c.Running(), "повторный старт не создаёт второй таймер")

	c.Replace(nil)
	assert.False(t, c.Running(), "пустая коллекция останавливает таймер")

	c.Replace([]*Record{ownedRecord("p1", "me", models.Counters{Views: 100}, 1)})
	assert.True(t, c.Running())

	c.EndSession()
	assert.False(t, c.Running())
}

func TestClockNotifiesOwnerOnly(t *testing.T) {
	n := &fakeNotifier{}
	c := newTestClock(n)
	defer c.Close()

	mine := ownedRecord("mine", "me", models.Counters{Views: 100}, 2)
	theirs := ownedRecord("theirs", "someone", models.Counters{Views: 100}, 3)
	c.Replace([]*Record{mine, theirs})
	c.StartSession("me")

	res := c.Tick(epoch.Add(GrowthWindow))
	require.True(t, res.Changed)
	assert.Len(t, res.Reveals, 5)

	sent := n.all()
	require.Len(t, sent, 2, "уведомляем только о комментариях к своим постам")
	for _, s := range sent {
		assert.Equal(t, models.NotificationComment, s.Kind)
		assert.Equal(t, "fan", s.Author)
		assert.Equal(t, CommentNotificationText, s.Message)
	}
}

func TestClockNoNotificationsWithoutSession(t *testing.T) {
	n := &fakeNotifier{}
	c := newTestClock(n)
	defer c.Close()

	c.Replace([]*Record{ownedRecord("mine", "me", models.Counters{Views: 100}, 2)})
	res := c.Tick(epoch.Add(GrowthWindow))
	assert.Len(t, res.Reveals, 2)
	assert.Empty(t, n.all())
}

func TestClockSkipsMalformedRecord(t *testing.T) {
	c := newTestClock(nil)
	defer c.Close()

	bad := ownedRecord("bad", "me", models.Counters{Views: 100}, 1)
	bad.Exponent = math.NaN()
	good := ownedRecord("good", "me", models.Counters{Views: 1440}, 1)
	c.Replace([]*Record{bad, good})

	res := c.Tick(epoch.Add(720 * time.Minute))
	assert.Equal(t, 1, res.Skipped)
	assert.True(t, res.Changed)

	snap, ok := c.Lookup("good")
	require.True(t, ok)
	assert.Equal(t, 720, snap.Counters.Views)

	snap, ok = c.Lookup("bad")
	require.True(t, ok)
	assert.Equal(t, 0, snap.Counters.Views)
}

func TestClockPublishesOnlyChanges(t *testing.T) {
	c := newTestClock(nil)
	defer c.Close()

	ch := make(chan Change, 8)
	require.NoError(t, c.Subscribe("test", ch))
	defer c.Unsubscribe("test")

	c.Replace([]*Record{ownedRecord("p1", "me", models.Counters{Views: 100}, 1)})
	<-ch // замена коллекции тоже публикует снимок

	res := c.Tick(epoch.Add(GrowthWindow))
	require.True(t, res.Changed)
	change := <-ch
	require.Len(t, change.Reveals, 1)
	assert.Equal(t, "p1", change.Reveals[0].PostID)
	assert.Equal(t, 0, change.Reveals[0].Index)

	res = c.Tick(epoch.Add(GrowthWindow + time.Minute))
	assert.False(t, res.Changed)
	select {
	case <-ch:
		t.Fatalf("снимок опубликован без изменений")
	default:
	}

	snap, ok := c.Lookup("p1")
	require.True(t, ok)
	assert.True(t, snap.Settled)
	assert.Len(t, snap.RevealedComments, 1)
}

func TestClockSkipsOverlappingTick(t *testing.T) {
	c := newTestClock(nil)
	defer c.Close()
	c.Replace([]*Record{ownedRecord("p1", "me", models.Counters{Views: 100}, 1)})

	c.ticking.Store(true)
	res := c.Tick(epoch.Add(GrowthWindow))
	assert.True(t, res.Overlapped)
	assert.False(t, res.Changed)

	c.ticking.Store(false)
	res = c.Tick(epoch.Add(GrowthWindow))
	assert.True(t, res.Changed)
}

func TestClockTimerDrivesTicks(t *testing.T) {
	var mu sync.Mutex
	now := epoch
	c := NewClock(ClockConfig{
		Interval: 10 * time.Millisecond,
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		},
		Rand: zeroRand{},
	}, nil, nil)
	defer c.Close()

	c.Replace([]*Record{ownedRecord("p1", "me", models.Counters{Views: 100}, 1)})
	mu.Lock()
	now = epoch.Add(GrowthWindow)
	mu.Unlock()
	c.StartSession("me")

	require.Eventually(t, func() bool {
		snap, ok := c.Lookup("p1")
		return ok && snap.Settled
	}, 2*time.Second, 5*time.Millisecond)

	c.EndSession()
	assert.False(t, c.Running())
}

func TestClockPlans(t *testing.T) {
	c := newTestClock(nil)
	defer c.Close()
	c.Replace([]*Record{ownedRecord("p1", "me", models.Counters{Views: 100}, 3)})
	c.Tick(epoch.Add(GrowthWindow))

	plans := c.Plans()
	require.Len(t, plans, 1)
	assert.Equal(t, "p1", plans[0].PostID)
	assert.Equal(t, 3, plans[0].NextRevealIndex)
}
