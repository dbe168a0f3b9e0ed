package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/config"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/live"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/pipeline"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/platform/reqid"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/websocket"
)

const sessionMaxAgeDays = 7

// Connection limits for the WebSocket endpoint.
const (
	maxGlobalConnections = 5000
	maxConnectionsPerIP  = 20
	connectionsPerSecond = 10.0
	connectionBurst      = 10
)

// Per-user rate limit for analyze requests.
const (
	analyzePerSecond = 2.0
	analyzeBurst     = 5
)

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	users        domain.UserRepository
	registrar    domain.Registrar
	inviteKeys   domain.InviteKeyRepository
	settingsRepo domain.SettingsRepository
	settings     domain.SettingsProvider
	registry     *live.Registry
	pipeline     *pipeline.Pipeline
	hub          *websocket.Hub
	history      domain.EventHistory
	pool         *pgxpool.Pool
	redisClient  *goredis.Client
	sessionStore *sessions.CookieStore
	connLimits   *ConnectionLimits
	analyzeLimit *UserRateLimiter
	clock        clockwork.Clock
}

// Deps bundles the collaborators the server needs. Pool and Redis are only
// used by readiness checks and may be nil in tests.
type Deps struct {
	Users        domain.UserRepository
	Registrar    domain.Registrar
	InviteKeys   domain.InviteKeyRepository
	SettingsRepo domain.SettingsRepository
	Settings     domain.SettingsProvider
	Registry     *live.Registry
	Pipeline     *pipeline.Pipeline
	Hub          *websocket.Hub
	History      domain.EventHistory
	Pool         *pgxpool.Pool
	Redis        *goredis.Client
	Clock        clockwork.Clock
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(reqid.Middleware())
	e.Use(middleware.Logger())

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * sessionMaxAgeDays,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	srv := &Server{
		echo:         e,
		config:       cfg,
		users:        deps.Users,
		registrar:    deps.Registrar,
		inviteKeys:   deps.InviteKeys,
		settingsRepo: deps.SettingsRepo,
		settings:     deps.Settings,
		registry:     deps.Registry,
		pipeline:     deps.Pipeline,
		hub:          deps.Hub,
		history:      deps.History,
		pool:         deps.Pool,
		redisClient:  deps.Redis,
		sessionStore: sessionStore,
		connLimits:   NewConnectionLimits(maxGlobalConnections, maxConnectionsPerIP, connectionsPerSecond, connectionBurst),
		analyzeLimit: NewUserRateLimiter(analyzePerSecond, analyzeBurst),
		clock:        clock,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
