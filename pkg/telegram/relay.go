package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"zentok/internal/common"
	"zentok/models"
)

const subscriberID = "telegram-relay"

// Config настраивает пересылку уведомлений в Telegram.
type Config struct {
	APIID    int
	APIHash  string
	BotToken string
	// Chat — @username или ссылка на чат, куда отправляются уведомления.
	Chat string
	// SessionPath — файл сессии бота. Пустой путь хранит сессию в памяти.
	SessionPath string
	// RetryDelay задаёт диапазон паузы перед переподключением, в секундах.
	RetryDelay [2]int
	// Buffer задаёт ёмкость очереди, при переполнении новые уведомления теряются.
	Buffer int
	// Proxy задаёт адрес SOCKS5-прокси host:port. Пустой адрес означает прямое подключение.
	Proxy         string
	ProxyUser     string
	ProxyPassword string
}

// Source отдаёт поток уведомлений.
type Source interface {
	Subscribe(id string, ch chan<- models.Notification) error
	Unsubscribe(id string) error
}

// Sender отправляет текст в настроенный чат.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// connectFunc устанавливает соединение и вызывает serve, пока соединение живо.
type connectFunc func(ctx context.Context, serve func(ctx context.Context, s Sender) error) error

// Relay пересылает уведомления из потока эмиттера в чат Telegram.
type Relay struct {
	cfg     Config
	source  Source
	logger  *zap.Logger
	connect connectFunc
}

func NewRelay(cfg Config, source Source, logger *zap.Logger) *Relay {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 32
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Relay{cfg: cfg, source: source, logger: logger.Named("telegram")}
	r.connect = r.connectBot
	return r
}

// Run подписывается на поток и пересылает уведомления, пока не отменён ctx.
// При обрыве соединения ждёт случайную паузу из RetryDelay и подключается заново.
func (r *Relay) Run(ctx context.Context) error {
	ch := make(chan models.Notification, r.cfg.Buffer)
	if err := r.source.Subscribe(subscriberID, ch); err != nil {
		return errors.Wrap(err, "subscribe")
	}
	defer func() { _ = r.source.Unsubscribe(subscriberID) }()

	for {
		err := r.connect(ctx, func(ctx context.Context, s Sender) error {
			r.logger.Info("пересылка уведомлений запущена", zap.String("chat", r.cfg.Chat))
			return forward(ctx, ch, s)
		})
		if ctx.Err() != nil {
			return nil
		}
		r.logger.Warn("соединение с Telegram потеряно, переподключаемся", zap.Error(err))
		if err := common.WaitWithCancellation(ctx, r.cfg.RetryDelay); err != nil {
			return nil
		}
	}
}

func forward(ctx context.Context, ch <-chan models.Notification, s Sender) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-ch:
			if err := s.Send(ctx, FormatNotification(n)); err != nil {
				return errors.Wrapf(err, "send notification %s", n.ID)
			}
		}
	}
}

// FormatNotification приводит уведомление к тексту сообщения.
func FormatNotification(n models.Notification) string {
	icon := "🔔"
	switch n.Kind {
	case models.NotificationComment:
		icon = "💬"
	case models.NotificationLike:
		icon = "❤️"
	case models.NotificationFollow:
		icon = "👤"
	}

	var b strings.Builder
	b.WriteString(icon)
	b.WriteByte(' ')
	if n.Kind != models.NotificationSystem && n.AuthorHandle != "" {
		fmt.Fprintf(&b, "@%s ", n.AuthorHandle)
	}
	b.WriteString(strings.TrimSpace(n.Message))
	if !n.Timestamp.IsZero() {
		fmt.Fprintf(&b, " (%s)", n.Timestamp.Format("15:04"))
	}
	return b.String()
}

type botSender struct {
	sender *message.Sender
	chat   string
}

func (s botSender) Send(ctx context.Context, text string) error {
	_, err := s.sender.Resolve(s.chat).Text(ctx, text)
	return err
}

// connectBot подключается к Telegram от имени бота.
func (r *Relay) connectBot(ctx context.Context, serve func(ctx context.Context, s Sender) error) error {
	var storage telegram.SessionStorage = &session.StorageMemory{}
	if r.cfg.SessionPath != "" {
		storage = &telegram.FileSessionStorage{Path: r.cfg.SessionPath}
	}
	opts := telegram.Options{
		SessionStorage: storage,
		Logger:         r.logger.Named("gotd"),
	}
	resolver, err := proxyResolver(r.cfg)
	if err != nil {
		return err
	}
	if resolver != nil {
		opts.Resolver = resolver
		r.logger.Info("Подключение через прокси", zap.String("proxy", r.cfg.Proxy))
	}
	client := telegram.NewClient(r.cfg.APIID, r.cfg.APIHash, opts)

	return client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return errors.Wrap(err, "auth status")
		}
		if !status.Authorized {
			if _, err := client.Auth().Bot(ctx, r.cfg.BotToken); err != nil {
				return errors.Wrap(err, "bot auth")
			}
		}
		return serve(ctx, botSender{sender: message.NewSender(tg.NewClient(client)), chat: r.cfg.Chat})
	})
}

// proxyResolver строит резолвер дата-центров поверх SOCKS5. Без адреса прокси возвращает nil.
func proxyResolver(cfg Config) (dcs.Resolver, error) {
	if cfg.Proxy == "" {
		return nil, nil
	}
	var auth *proxy.Auth
	if cfg.ProxyUser != "" || cfg.ProxyPassword != "" {
		auth = &proxy.Auth{User: cfg.ProxyUser, Password: cfg.ProxyPassword}
	}
	d, err := proxy.SOCKS5("tcp", cfg.Proxy, auth, proxy.Direct)
	if err != nil {
		return nil, errors.Wrap(err, "proxy dialer")
	}
	dc, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("proxy dialer missing context")
	}
	return dcs.Plain(dcs.PlainOptions{Dial: dc.DialContext}), nil
}
