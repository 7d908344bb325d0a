package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"zentok/internal/growth"
	"zentok/models"
	"zentok/pkg/planstore"
)

// Тексты системных уведомлений.
const (
	UploadedText       = "Your video was uploaded successfully."
	DeletedText        = "Video deleted."
	LikedText          = "You reacted to this video!"
	DailyReminderText  = "You haven't uploaded your daily video yet! Tap + to share today."
	systemAuthorHandle = "zentok"

	planSubscriber = "session-plans"
)

var (
	// ErrNoSession: операция требует активной сессии.
	ErrNoSession = errors.New("no active session")
	// ErrInvalidUser: у пользователя нет id или имени.
	ErrInvalidUser = errors.New("invalid user")
	// ErrInvalidUpload: у загрузки нет ссылки на видео.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrPostNotFound: поста нет в ленте или в хранилище.
	ErrPostNotFound = models.ErrPostNotFound
)

// PostStore читает и пишет посты во внешнем хранилище.
type PostStore interface {
	LoadPosts(ctx context.Context) ([]models.Post, error)
	CreatePost(ctx context.Context, post models.NewPost) (models.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// PlanStore хранит планы роста между перезагрузками. LoadPlan возвращает planstore.ErrNotFound,
// если плана нет.
type PlanStore interface {
	LoadPlan(ctx context.Context, postID string) (models.GrowthPlan, error)
	SavePlan(ctx context.Context, plan models.GrowthPlan) error
	AdvanceCursor(ctx context.Context, postID string, next int) error
	DeletePlan(ctx context.Context, postID string) error
}

// Scorer оценивает потенциал загружаемого видео числом от 0 до 100.
type Scorer interface {
	ScoreUploadPotential(ctx context.Context, video []byte, mimeType, caption string) (int, error)
}

// User — владелец сессии.
type User struct {
	ID       string `json:"user_id"`
	Username string `json:"username"`
}

// Upload содержит данные новой публикации.
type Upload struct {
	Caption  string
	VideoURL string
	Video    []byte
	MimeType string
}

// Plans и Scorer необязательны.
type Deps struct {
	Posts    PostStore
	Plans    PlanStore
	Scorer   Scorer
	Pools    *growth.PoolBuilder
	Clock    *growth.Clock
	Notifier growth.Notifier
	Logger   *zap.Logger
}

// Нулевые поля заменяются значениями по умолчанию.
type Options struct {
	Now      func() time.Time
	Rand     growth.Rand
	Location *time.Location
}

// Service ведёт сессию пользователя и его ленту.
type Service struct {
	posts    PostStore
	plans    PlanStore
	scorer   Scorer
	pools    *growth.PoolBuilder
	clock    *growth.Clock
	notifier growth.Notifier
	logger   *zap.Logger

	now func() time.Time
	rng growth.Rand
	loc *time.Location

	mu   sync.Mutex
	user *User
}

func NewService(deps Deps, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = growth.DefaultRand
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Pools == nil {
		deps.Pools = growth.NewPoolBuilder(nil, 1, deps.Logger)
	}
	return &Service{
		posts:    deps.Posts,
		plans:    deps.Plans,
		scorer:   deps.Scorer,
		pools:    deps.Pools,
		clock:    deps.Clock,
		notifier: deps.Notifier,
		logger:   deps.Logger.Named("session"),
		now:      opts.Now,
		rng:      opts.Rand,
		loc:      opts.Location,
	}
}

// Login начинает сессию, загружает посты и взводит часы. После загрузки
// напоминает о ежедневной публикации, если сегодня постов ещё не было.
func (s *Service) Login(ctx context.Context, u User) error {
	u.ID = strings.TrimSpace(u.ID)
	u.Username = strings.TrimSpace(u.Username)
	if u.ID == "" || u.Username == "" {
		return ErrInvalidUser
	}

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	s.clock.StartSession(u.Username)

	posts, err := s.reload(ctx)
	if err != nil {
		s.Logout()
		return err
	}
	s.logger.Info("сессия начата", zap.String("user", u.Username), zap.Int("posts", len(posts)))

	if !s.postedToday(u, posts) {
		s.emit(systemAuthorHandle, models.NotificationSystem, DailyReminderText)
	}
	return nil
}

// Logout завершает сессию, очищает ленту и останавливает часы.
func (s *Service) Logout() {
	s.mu.Lock()
	user := s.user
	s.user = nil
	s.mu.Unlock()

	s.clock.EndSession()
	s.clock.Replace(nil)
	if user != nil {
		s.logger.Info("сессия завершена", zap.String("user", user.Username))
	}
}

// User возвращает владельца активной сессии.
func (s *Service) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Reload перечитывает посты из хранилища и заменяет коллекцию записей роста.
func (s *Service) Reload(ctx context.Context) error {
	if _, ok := s.User(); !ok {
		return ErrNoSession
	}
	_, err := s.reload(ctx)
	return err
}

// Feed возвращает текущий снимок ленты.
func (s *Service) Feed() []models.PostSnapshot {
	return s.clock.Snapshot()
}

// Post возвращает один пост из текущего снимка.
func (s *Service) Post(id string) (models.PostSnapshot, error) {
	snap, ok := s.clock.Lookup(id)
	if !ok {
		return models.PostSnapshot{}, ErrPostNotFound
	}
	return snap, nil
}

// Upload оценивает видео (если доступен Scorer), создаёт пост и перезагружает ленту.
// Ошибка оценки не мешает публикации: пост просто остаётся без оценки.
func (s *Service) Upload(ctx context.Context, up Upload) (models.Post, error) {
	u, ok := s.User()
	if !ok {
		return models.Post{}, ErrNoSession
	}
	up.VideoURL = strings.TrimSpace(up.VideoURL)
	if up.VideoURL == "" {
		return models.Post{}, errors.Wrap(ErrInvalidUpload, "video url is required")
	}

	caption := strings.TrimSpace(up.Caption)
	if s.scorer != nil && len(up.Video) > 0 {
		score, err := s.scorer.ScoreUploadPotential(ctx, up.Video, up.MimeType, caption)
		if err != nil {
			s.logger.Warn("оценка потенциала недоступна", zap.Error(err))
		} else {
			caption = growth.TagPotential(caption, score)
		}
	}

	post, err := s.posts.CreatePost(ctx, models.NewPost{AuthorID: u.ID, VideoURL: up.VideoURL, Caption: caption})
	if err != nil {
		return models.Post{}, errors.Wrap(err, "create post")
	}
	post = splitCaption(post)
	s.logger.Info("пост создан", zap.String("post_id", post.ID), zap.Bool("scored", post.PotentialScore != nil))

	if _, err := s.reload(ctx); err != nil {
		return post, err
	}
	s.emit(systemAuthorHandle, models.NotificationSystem, UploadedText)
	return post, nil
}

// Delete удаляет пост вместе с его планом роста и перезагружает ленту.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, ok := s.User(); !ok {
		return ErrNoSession
	}
	if err := s.posts.DeletePost(ctx, id); err != nil {
		return errors.Wrapf(err, "delete post %s", id)
	}
	if s.plans != nil {
		if err := s.plans.DeletePlan(ctx, id); err != nil && !errors.Is(err, planstore.ErrNotFound) {
			s.logger.Warn("план роста не удалён", zap.String("post_id", id), zap.Error(err))
		}
	}
	if _, err := s.reload(ctx); err != nil {
		return err
	}
	s.emit(systemAuthorHandle, models.NotificationSystem, DeletedText)
	return nil
}

// Like отмечает реакцию пользователя на пост. Счётчики симуляции не меняются.
func (s *Service) Like(_ context.Context, id string) error {
	u, ok := s.User()
	if !ok {
		return ErrNoSession
	}
	if _, ok := s.clock.Lookup(id); !ok {
		return ErrPostNotFound
	}
	s.emit(u.Username, models.NotificationLike, LikedText)
	return nil
}

// Run сохраняет сдвиги курсора показа комментариев, пока не отменён ctx.
// Без хранилища планов сразу ждёт отмены.
func (s *Service) Run(ctx context.Context) error {
	if s.plans == nil {
		<-ctx.Done()
		return nil
	}

	ch := make(chan growth.Change, 64)
	if err := s.clock.Subscribe(planSubscriber, ch); err != nil {
		return errors.Wrap(err, "subscribe to clock")
	}
	defer func() { _ = s.clock.Unsubscribe(planSubscriber) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-ch:
			s.persistReveals(ctx, change.Reveals)
		}
	}
}

func (s *Service) persistReveals(ctx context.Context, reveals []growth.Reveal) {
	next := make(map[string]int)
	for _, r := range reveals {
		next[r.PostID] = max(next[r.PostID], r.Index+1)
	}
	for postID, n := range next {
		if err := s.plans.AdvanceCursor(ctx, postID, n); err != nil {
			s.logger.Warn("курсор показа не сохранён", zap.String("post_id", postID), zap.Error(err))
		}
	}
}

// reload загружает посты и собирает для них записи роста.
func (s *Service) reload(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.LoadPosts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load posts")
	}
	for i := range posts {
		posts[i] = splitCaption(posts[i])
	}

	plans := make([]models.GrowthPlan, len(posts))
	var missing []int
	for i, p := range posts {
		plan, ok := s.storedPlan(ctx, p)
		if ok {
			plans[i] = plan
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) > 0 {
		need := make([]models.Post, len(missing))
		for j, i := range missing {
			need[j] = posts[i]
		}
		pools := s.pools.BuildAll(ctx, need)
		for j, i := range missing {
			plans[i] = growth.NewPlan(posts[i], pools[j], s.rng)
			s.savePlan(ctx, plans[i])
		}
	}

	now := s.now()
	records := make([]*growth.Record, len(posts))
	for i, p := range posts {
		rec := growth.NewRecord(p, plans[i])
		rec.Prime(now, s.rng)
		if s.plans != nil && rec.NextRevealIndex > plans[i].NextRevealIndex {
			if err := s.plans.AdvanceCursor(ctx, p.ID, rec.NextRevealIndex); err != nil {
				s.logger.Warn("курсор показа не сохранён", zap.String("post_id", p.ID), zap.Error(err))
			}
		}
		records[i] = rec
	}
	s.clock.Replace(records)

	s.logger.Debug("лента перезагружена",
		zap.Int("posts", len(posts)),
		zap.Int("new_plans", len(missing)))
	return posts, nil
}

func (s *Service) storedPlan(ctx context.Context, p models.Post) (models.GrowthPlan, bool) {
	if s.plans == nil {
		return models.GrowthPlan{}, false
	}
	plan, err := s.plans.LoadPlan(ctx, p.ID)
	switch {
	case errors.Is(err, planstore.ErrNotFound):
		return models.GrowthPlan{}, false
	case err != nil:
		s.logger.Warn("план роста не прочитан, рассчитываем заново", zap.String("post_id", p.ID), zap.Error(err))
		return models.GrowthPlan{}, false
	case !growth.PlanFits(plan, p):
		s.logger.Debug("сохранённый план устарел", zap.String("post_id", p.ID))
		return models.GrowthPlan{}, false
	}
	return plan, true
}

func (s *Service) savePlan(ctx context.Context, plan models.GrowthPlan) {
	if s.plans == nil {
		return
	}
	if err := s.plans.SavePlan(ctx, plan); err != nil {
		s.logger.Warn("план роста не сохранён", zap.String("post_id", plan.PostID), zap.Error(err))
	}
}

// postedToday проверяет, есть ли у пользователя пост за сегодняшний локальный день.
func (s *Service) postedToday(u User, posts []models.Post) bool {
	y, m, d := s.now().In(s.loc).Date()
	for _, p := range posts {
		if p.AuthorID != u.ID && p.AuthorHandle != u.Username {
			continue
		}
		py, pm, pd := p.CreatedAt.In(s.loc).Date()
		if py == y && pm == m && pd == d {
			return true
		}
	}
	return false
}

func (s *Service) emit(author string, kind models.NotificationKind, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Emit(author, kind, message)
}

// splitCaption выносит оценку потенциала из подписи в отдельное поле.
func splitCaption(p models.Post) models.Post {
	caption, score := growth.ParsePotentialTag(p.Caption)
	p.Caption = caption
	if p.PotentialScore == nil {
		p.PotentialScore = score
	}
	return p
}
