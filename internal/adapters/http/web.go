package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clubdesk/internal/adapters/email"
	"clubdesk/internal/adapters/http/middleware"
	"clubdesk/internal/adapters/identitytoken"
	categoryStore "clubdesk/internal/adapters/storage/category"
	goalStore "clubdesk/internal/adapters/storage/goal"
	identityStore "clubdesk/internal/adapters/storage/identity"
	inviteStore "clubdesk/internal/adapters/storage/invite"
	membershipStore "clubdesk/internal/adapters/storage/membership"
	messageStore "clubdesk/internal/adapters/storage/message"
	outboxStore "clubdesk/internal/adapters/storage/outbox"
	profileStore "clubdesk/internal/adapters/storage/profile"
	recordStore "clubdesk/internal/adapters/storage/record"
)

// Stores holds all storage dependencies.
type Stores struct {
	IdentityStore   identityStore.Store
	ProfileStore    profileStore.Store
	MembershipStore membershipStore.Store
	InviteStore     inviteStore.Store
	CategoryStore   categoryStore.Store
	RecordStore     recordStore.Store
	GoalStore       goalStore.Store
	MessageStore    messageStore.Store
	OutboxStore     outboxStore.Store
}

// loadCSRFKey reads the CSRF secret from CLUBDESK_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("CLUBDESK_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("CLUBDESK_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("CLUBDESK_ENV") == "production" {
		log.Fatal("CLUBDESK_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set CLUBDESK_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global token config (set by NewMux)
var tokenConfig identitytoken.Config

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender, from string) {
	emailSender = sender
	emailFromAddress = from
}

// NewMux wires HTTP handlers for the app.
func NewMux(staticDir string, s *Stores, tokens identitytoken.Config) http.Handler {
	stores = s
	tokenConfig = tokens
	middleware.SecureCookies = os.Getenv("CLUBDESK_ENV") == "production"

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	mux.Handle("/metrics", promhttp.Handler())
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, []string{"localhost:8080", "127.0.0.1:8080"}),
		middleware.Auth(tokens),
		middleware.RateLimit(limiter),
		middleware.Timing(),
	)
}
