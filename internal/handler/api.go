package handler

import (
	"github.com/fitlog/internal/config"
	"github.com/fitlog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	cfg       config.AppConfig
	auth      *service.AuthService
	exercises *service.ExerciseService
	workouts  *service.WorkoutService
	sessions  *service.SessionService
	imports   *service.ImportService
	wger      *service.WgerClient
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig) *API {
	return &API{
		db:  gdb,
		cfg: cfg,
		auth: service.NewAuthService(gdb, service.TokenConfig{
			Secret: []byte(cfg.TokenSecret),
			TTL:    cfg.TokenTTL,
		}),
		exercises: service.NewExerciseService(gdb),
		workouts:  service.NewWorkoutService(gdb),
		sessions:  service.NewSessionService(gdb),
		imports:   service.NewImportService(gdb),
		wger:      service.NewWgerClient(cfg.WgerBaseURL, cfg.WgerTimeout),
	}
}

// DB exposes the underlying gorm instance for tests.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Wger exposes the external client so tests can swap its HTTP transport.
func (a *API) Wger() *service.WgerClient {
	return a.wger
}
