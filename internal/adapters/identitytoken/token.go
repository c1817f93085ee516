package identitytoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clubdesk/internal/domain/identity"
)

// Config holds signing parameters for identity tokens.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// DefaultTTL is the identity token lifetime. Privileged claims changes
// propagate only when a caller refreshes its token, so the TTL bounds
// the staleness window.
const DefaultTTL = time.Hour

// Claims is the payload carried by an identity token: the verified
// subject plus the privileged custom claims copied from the identity
// provider at mint time.
type Claims struct {
	Subject    string
	Email      string
	Role       string
	ClubID     string
	SuperAdmin bool
	ExpiresAt  time.Time
}

// ErrMissingToken is returned when no token is presented.
var ErrMissingToken = errors.New("missing identity token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid identity token")

// Mint signs a token for an identity, embedding its current claims
// map. A caller holding an older token keeps observing its old claims
// until it refreshes.
// PRE: id has a non-empty ID and Email; cfg.Secret is set
// POST: Returns a signed HS256 JWT
func Mint(id identity.Identity, cfg Config, now time.Time) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("token secret is not configured")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	claims := jwt.MapClaims{
		"iss":   cfg.Issuer,
		"sub":   id.ID,
		"email": id.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if role := id.RoleClaim(); role != "" {
		claims["role"] = role
	}
	if clubID := id.ClubClaim(); clubID != "" {
		claims["club_id"] = clubID
	}
	if id.HasSuperClaim() {
		claims["super_admin"] = true
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign identity token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns normalized claims.
// PRE: cfg matches the minting configuration
// POST: Returns claims or a classified error
func Parse(token string, cfg Config) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, _ := mapClaims["sub"].(string)
	if subject == "" {
		return nil, ErrInvalidToken
	}
	email, _ := mapClaims["email"].(string)

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}

	return &Claims{
		Subject:    subject,
		Email:      email,
		Role:       identity.ClaimString(mapClaims, "role"),
		ClubID:     identity.ClaimString(mapClaims, "club_id"),
		SuperAdmin: identity.ClaimIsTrue(mapClaims, "super_admin"),
		ExpiresAt:  exp.Time,
	}, nil
}
