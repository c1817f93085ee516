package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	emailPkg "clubdesk/internal/adapters/email"
	web "clubdesk/internal/adapters/http"
	"clubdesk/internal/adapters/identitytoken"
	"clubdesk/internal/adapters/storage"
	categoryStore "clubdesk/internal/adapters/storage/category"
	goalStore "clubdesk/internal/adapters/storage/goal"
	identityStore "clubdesk/internal/adapters/storage/identity"
	inviteStore "clubdesk/internal/adapters/storage/invite"
	membershipStore "clubdesk/internal/adapters/storage/membership"
	messageStore "clubdesk/internal/adapters/storage/message"
	outboxStore "clubdesk/internal/adapters/storage/outbox"
	profileStore "clubdesk/internal/adapters/storage/profile"
	recordStore "clubdesk/internal/adapters/storage/record"
	"clubdesk/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func newID() string {
	return uuid.New().String()
}

type config struct {
	Addr      string `env:"CLUBDESK_ADDR" envDefault:":8080"`
	Env       string `env:"CLUBDESK_ENV" envDefault:"development"`
	DBPath    string `env:"CLUBDESK_DB_PATH" envDefault:"clubdesk.db"`
	StaticDir string `env:"CLUBDESK_STATIC_DIR" envDefault:"static"`

	TokenSecret string        `env:"CLUBDESK_TOKEN_SECRET"`
	TokenIssuer string        `env:"CLUBDESK_TOKEN_ISSUER" envDefault:"clubdesk"`
	TokenTTL    time.Duration `env:"CLUBDESK_TOKEN_TTL" envDefault:"1h"`

	ResendKey string `env:"CLUBDESK_RESEND_KEY"`
	EmailFrom string `env:"CLUBDESK_EMAIL_FROM" envDefault:"Clubdesk <noreply@clubdesk.app>"`

	SuperEmail    string `env:"CLUBDESK_SUPER_EMAIL"`
	SuperPassword string `env:"CLUBDESK_SUPER_PASSWORD"`

	OutboxInterval time.Duration `env:"CLUBDESK_OUTBOX_INTERVAL" envDefault:"5m"`
}

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	if cfg.TokenSecret == "" {
		if cfg.Env == "production" {
			log.Fatal("CLUBDESK_TOKEN_SECRET is required in production")
		}
		cfg.TokenSecret = "dev-only-secret-change-me"
		log.Println("WARNING: using development token secret. Set CLUBDESK_TOKEN_SECRET for production.")
	}

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully!")

	// Wrap DB so query timings land in the Prometheus metrics
	timedDB := storage.NewTimedDB(db)

	idStore := identityStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		IdentityStore:   idStore,
		ProfileStore:    profileStore.NewSQLiteStore(timedDB),
		MembershipStore: membershipStore.NewSQLiteStore(timedDB),
		InviteStore:     inviteStore.NewSQLiteStore(timedDB),
		CategoryStore:   categoryStore.NewSQLiteStore(timedDB),
		RecordStore:     recordStore.NewSQLiteStore(timedDB),
		GoalStore:       goalStore.NewSQLiteStore(timedDB),
		MessageStore:    messageStore.NewSQLiteStore(timedDB),
		OutboxStore:     outboxStore.NewSQLiteStore(timedDB),
	}

	// Bootstrap the first super-admin on an empty database
	seedDeps := orchestrators.SeedSuperAdminDeps{
		IdentityStore: idStore,
		GenerateID:    newID,
		Now:           time.Now,
	}
	seedInput := orchestrators.SeedSuperAdminInput{
		Email:    cfg.SuperEmail,
		Password: cfg.SuperPassword,
	}
	if err := orchestrators.ExecuteSeedSuperAdmin(context.Background(), seedInput, seedDeps); err != nil {
		log.Fatalf("failed to seed super admin: %v", err)
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.Env == "production" {
			log.Println("WARNING: CLUBDESK_RESEND_KEY is not set, email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set CLUBDESK_RESEND_KEY for real delivery)")
		}
	}
	web.SetEmailSender(sender, cfg.EmailFrom)

	// Background retry of deferred claims writes and invite emails
	retryDeps := orchestrators.OutboxRetryDeps{
		OutboxStore:   stores.OutboxStore,
		IdentityStore: idStore,
		EmailSender:   sender,
		EmailFrom:     cfg.EmailFrom,
		Now:           time.Now,
	}
	retryCfg := orchestrators.DefaultOutboxRetryConfig()
	retryCfg.Interval = cfg.OutboxInterval
	stopRetry := orchestrators.StartOutboxRetryScheduler(context.Background(), retryDeps, retryCfg)
	defer stopRetry()

	tokens := identitytoken.Config{
		Secret: cfg.TokenSecret,
		Issuer: cfg.TokenIssuer,
		TTL:    cfg.TokenTTL,
	}
	mux := web.NewMux(cfg.StaticDir, stores, tokens)

	log.Printf("Clubdesk %s starting on %s (env=%s)", version, cfg.Addr, cfg.Env)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
