package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"zentok/internal/notification"
	"zentok/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestFormatNotification(t *testing.T) {
	ts := time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "💬 @lucia.99 commented on your video (14:05)", FormatNotification(models.Notification{
		AuthorHandle: "lucia.99",
		Kind:         models.NotificationComment,
		Message:      "commented on your video",
		Timestamp:    ts,
	}))
	assert.Equal(t, "🔔 Video deleted.", FormatNotification(models.Notification{
		AuthorHandle: "zentok",
		Kind:         models.NotificationSystem,
		Message:      "Video deleted.",
	}))
}

func TestRelayReconnectsAndForwards(t *testing.T) {
	em := notification.NewEmitter(notification.Config{}, nil)
	defer em.Close()

	r := NewRelay(Config{RetryDelay: [2]int{0, 0}, Chat: "@zentok"}, em, nil)
	sender := &fakeSender{}
	attempts := 0
	connected := make(chan struct{})
	r.connect = func(ctx context.Context, serve func(ctx context.Context, s Sender) error) error {
		attempts++
		if attempts == 1 {
			return errors.New("dial failed")
		}
		close(connected)
		return serve(ctx, sender)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	<-connected
	em.Emit("alice", models.NotificationComment, "commented on your video")
	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, attempts)
}

func TestRelayStopsWhileWaiting(t *testing.T) {
	em := notification.NewEmitter(notification.Config{}, nil)
	defer em.Close()

	r := NewRelay(Config{RetryDelay: [2]int{60, 60}}, em, nil)
	failed := make(chan struct{}, 1)
	r.connect = func(ctx context.Context, _ func(ctx context.Context, s Sender) error) error {
		failed <- struct{}{}
		return errors.New("dial failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	<-failed
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("relay не остановился во время паузы")
	}
}

func TestProxyResolver(t *testing.T) {
	resolver, err := proxyResolver(Config{})
	require.NoError(t, err)
	assert.Nil(t, resolver)

	resolver, err = proxyResolver(Config{Proxy: "127.0.0.1:1080", ProxyUser: "u", ProxyPassword: "p"})
	require.NoError(t, err)
	assert.NotNil(t, resolver)
}
