package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/ai"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/config"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/live"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/pipeline"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/websocket"
)

// --- In-memory fakes ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]domain.User)}
}

func (r *fakeUserRepo) add(username, password string, isAdmin bool) domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now(),
	}
	r.mu.Lock()
	r.users[user.ID] = user
	r.mu.Unlock()
	return user
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

type fakeRegistrar struct {
	users *fakeUserRepo
	keys  map[string]bool // key -> used
	mu    sync.Mutex
}

func newFakeRegistrar(users *fakeUserRepo, keys ...string) *fakeRegistrar {
	r := &fakeRegistrar{users: users, keys: make(map[string]bool)}
	for _, k := range keys {
		r.keys[k] = false
	}
	return r
}

func (r *fakeRegistrar) Register(ctx context.Context, username, passwordHash, inviteKey string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.ErrUsernameTaken
	}
	used, ok := r.keys[inviteKey]
	if !ok || used {
		return nil, domain.ErrInviteKeyInvalid
	}
	r.keys[inviteKey] = true

	user := domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.users.mu.Lock()
	r.users.users[user.ID] = user
	r.users.mu.Unlock()
	return &user, nil
}

type fakeKeyRepo struct {
	mu   sync.Mutex
	keys []domain.InviteKey
}

func (r *fakeKeyRepo) CreateBatch(_ context.Context, count int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		key := fmt.Sprintf("key-%d-%d", len(r.keys), i)
		r.keys = append(r.keys, domain.InviteKey{Key: key, CreatedAt: time.Now()})
		out = append(out, key)
	}
	return out, nil
}

func (r *fakeKeyRepo) List(_ context.Context) ([]domain.InviteKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.InviteKey(nil), r.keys...), nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[uuid.UUID]domain.Settings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[uuid.UUID]domain.Settings)}
}

func (r *fakeSettingsRepo) Get(_ context.Context, userID uuid.UUID) (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[userID]
	if !ok {
		return domain.Settings{}, domain.ErrSettingsNotFound
	}
	return s, nil
}

func (r *fakeSettingsRepo) Update(_ context.Context, s domain.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.settings[s.UserID]; !ok {
		return domain.ErrSettingsNotFound
	}
	s.UpdatedAt = time.Now()
	r.settings[s.UserID] = s
	return nil
}

func (r *fakeSettingsRepo) put(s domain.Settings) {
	r.mu.Lock()
	r.settings[s.UserID] = s
	r.mu.Unlock()
}

// fakeSettingsProvider reads straight from the repo and records invalidations.
type fakeSettingsProvider struct {
	repo        *fakeSettingsRepo
	mu          sync.Mutex
	invalidated []uuid.UUID
}

func (p *fakeSettingsProvider) Get(ctx context.Context, userID uuid.UUID) (domain.Settings, error) {
	return p.repo.Get(ctx, userID)
}

func (p *fakeSettingsProvider) Invalidate(userID uuid.UUID) {
	p.mu.Lock()
	p.invalidated = append(p.invalidated, userID)
	p.mu.Unlock()
}

type fakeHistory struct {
	mu     sync.Mutex
	events map[uuid.UUID][]domain.Event
	err    error
}

func (h *fakeHistory) Append(_ context.Context, channelID uuid.UUID, event domain.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events == nil {
		h.events = make(map[uuid.UUID][]domain.Event)
	}
	h.events[channelID] = append(h.events[channelID], event)
	return nil
}

func (h *fakeHistory) Recent(_ context.Context, channelID uuid.UUID) ([]domain.Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	return append([]domain.Event(nil), h.events[channelID]...), nil
}

type nullPublisher struct{}

func (nullPublisher) Publish(context.Context, uuid.UUID, domain.Event) error { return nil }

type staticSource struct{}

func (staticSource) Next(now time.Time) domain.Comment {
	return domain.Comment{Author: "观众001", Text: "主播好", Timestamp: now}
}

// --- Test harness ---

type testEnv struct {
	server   *Server
	users    *fakeUserRepo
	keys     *fakeKeyRepo
	settings *fakeSettingsRepo
	provider *fakeSettingsProvider
	history  *fakeHistory
	registry *live.Registry
	pipeline *pipeline.Pipeline
	hub      *websocket.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		AppEnv:          "test",
		Port:            "0",
		SessionSecret:   "test-secret",
		CommentInterval: 5 * time.Second,
		AnalyzeWorkers:  2,
		AIReplyTimeout:  time.Second,
	}

	users := newFakeUserRepo()
	keys := &fakeKeyRepo{}
	settingsRepo := newFakeSettingsRepo()
	provider := &fakeSettingsProvider{repo: settingsRepo}
	history := &fakeHistory{}

	hub := websocket.NewHub(clockwork.NewRealClock())
	t.Cleanup(hub.Stop)

	registry := live.NewRegistry(nullPublisher{}, staticSource{}, clockwork.NewFakeClock())

	pl := pipeline.New(provider, ai.SimulatedTextGen{}, ai.SimulatedSpeech{}, hub, clockwork.NewRealClock(), cfg.AnalyzeWorkers)
	t.Cleanup(pl.Stop)

	srv := NewServer(cfg, Deps{
		Users:        users,
		Registrar:    newFakeRegistrar(users, "valid-key"),
		InviteKeys:   keys,
		SettingsRepo: settingsRepo,
		Settings:     provider,
		Registry:     registry,
		Pipeline:     pl,
		Hub:          hub,
		History:      history,
	})

	return &testEnv{
		server:   srv,
		users:    users,
		keys:     keys,
		settings: settingsRepo,
		provider: provider,
		history:  history,
		registry: registry,
		pipeline: pl,
		hub:      hub,
	}
}

// authCookie builds a session cookie for the given user.
func authCookie(t *testing.T, s *Server, userID uuid.UUID) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session, err := s.sessionStore.New(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyUserID] = userID.String()
	require.NoError(t, session.Save(req, rec))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func (e *testEnv) request(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.server.echo.ServeHTTP(rec, req)
	return rec
}
