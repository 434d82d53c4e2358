// Package bootstrap assembles the application from configuration: logger,
// session store, gateway client, intake forwarder and the webhook server.
package bootstrap

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "klinikbot/core/config"
	coredatabase "klinikbot/core/database"
	"klinikbot/core/flow"
	"klinikbot/core/intake"
	"klinikbot/core/logger"
	"klinikbot/core/session"
	"klinikbot/core/wablas"
	"klinikbot/core/webhook"
)

// Options control the bootstrap pipeline. The function fields exist so tests
// can substitute infrastructure; nil means the production default.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes the assembled application.
type Result struct {
	Server *webhook.Server
	DB     *sqlx.DB
}

// Run initializes the logger, builds the selected session store, and wires
// the webhook pipeline.
func Run(opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	store, db, err := buildSessionStore(cfg, opts)
	if err != nil {
		return nil, err
	}

	gateway := wablas.NewClient(cfg.Gateway)
	forwarder := intake.NewForwarder(cfg.Intake)
	handler := flow.NewHandler(store, gateway, forwarder, cfg.Gateway.BotNumber)

	return &Result{
		Server: webhook.NewServer(cfg.HTTP, handler),
		DB:     db,
	}, nil
}

func buildSessionStore(cfg *coreconfig.Config, opts Options) (session.Store, *sqlx.DB, error) {
	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute

	if cfg.Session.Backend != coreconfig.BackendPostgres {
		return session.NewMemoryStore(ttl), nil, nil
	}

	dbCfg := databaseConfig(cfg)

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(dbCfg); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return session.NewPostgresStore(db, ttl), db, nil
}

// databaseConfig maps the aggregate config's database section onto the
// database package's own type.
func databaseConfig(cfg *coreconfig.Config) coredatabase.Config {
	return coredatabase.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Name:           cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: cfg.Database.MaxConnections,
	}
}
