package server

import (
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/config"
	"github.com/wawengkz/INVENT/internal/audit"
	"github.com/wawengkz/INVENT/internal/db"
	"github.com/wawengkz/INVENT/internal/layout"
	"github.com/wawengkz/INVENT/internal/ratelimit"
	"github.com/wawengkz/INVENT/internal/repo"
)

// Services: хранилища и доменные сервисы поверх одной БД.
// Используется и HTTP-сервером, и командами CLI.
type Services struct {
	Stations    *repo.StationStore
	Bays        *repo.BayStore
	Departments *repo.DepartmentStore
	Engine      *layout.Engine
	Audits      *audit.Service
}

// OpenDB подключает БД из конфига и мигрирует схему.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	d, err := db.Open(db.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.Database.Debug,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(d); err != nil {
		return nil, err
	}
	return d, nil
}

func NewServices(cfg *config.Config, d *gorm.DB) *Services {
	stations := repo.NewStationStore(d)
	bays := repo.NewBayStore(d)
	deps := repo.NewDepartmentStore(d)
	return &Services{
		Stations:    stations,
		Bays:        bays,
		Departments: deps,
		Engine: layout.New(stations, bays, layout.Options{
			Transactional:          cfg.Layout.Transactional,
			RenumberCollisionCheck: cfg.Layout.RenumberCollisionCheck,
		}),
		Audits: audit.New(repo.NewAuditStore(d), deps, repo.NewLogStore(d),
			cfg.Inventory.Sites, cfg.LogsRetention.Days),
	}
}

// rateLimitStore выбирает хранилище окна; для redis возвращает и клиента.
func rateLimitStore(cfg *config.Config) (ratelimit.Store, *redis.Client) {
	if cfg.RateLimit.Backend != "redis" {
		return ratelimit.NewMemoryStore(), nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return ratelimit.NewRedisStore(rc, ""), rc
}
