package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/toko-pricing/internal/common"
)

const rolesClaim = "roles"

var errVerifierMissing = errors.New("auth: verifier not configured")

// Claims is what the service needs from a bearer token.
type Claims struct {
	UserID uuid.UUID
	Roles  []string
}

// Verifier checks HS256 bearer tokens minted by the identity service.
type Verifier struct {
	secret    []byte
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
}

// Config configures a Verifier.
type Config struct {
	Secret    string
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// NewVerifier builds a Verifier. The secret is mandatory.
func NewVerifier(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: secret is required")
	}
	return &Verifier{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		clockSkew: cfg.ClockSkew,
		now:       time.Now,
	}, nil
}

// WithNow overrides the clock used for expiry checks.
func (v *Verifier) WithNow(now func() time.Time) *Verifier {
	if now != nil {
		v.now = now
	}
	return v
}

// Verify parses token and returns its claims. Every failure is an UNAUTHORIZED AppError.
func (v *Verifier) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, unauthorized("missing token", nil)
	}
	if err := checkAlgorithm(token); err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	parsed, err := jwt.ParseString(token, jwt.WithKey(jwa.HS256, v.secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	if err := jwt.Validate(parsed, v.validateOptions()...); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return Claims{}, common.NewAppError("TOKEN_EXPIRED", "token expired", http.StatusUnauthorized, err)
		}
		return Claims{}, unauthorized("invalid token", err)
	}
	userID, err := uuid.Parse(parsed.Subject())
	if err != nil {
		return Claims{}, unauthorized("invalid token subject", err)
	}
	return Claims{UserID: userID, Roles: rolesOf(parsed)}, nil
}

// Issue signs a token for userID. Used by tooling and tests; production tokens
// come from the identity service.
func (v *Verifier) Issue(userID uuid.UUID, roles []string, ttl time.Duration) (string, error) {
	now := v.now()
	b := jwt.NewBuilder().
		Subject(userID.String()).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(ttl))
	if v.issuer != "" {
		b = b.Issuer(v.issuer)
	}
	if v.audience != "" {
		b = b.Audience([]string{v.audience})
	}
	if len(roles) > 0 {
		b = b.Claim(rolesClaim, roles)
	}
	tok, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, v.secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), nil
}

func (v *Verifier) validateOptions() []jwt.ValidateOption {
	now := v.now
	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now() })),
	}
	if v.clockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.clockSkew))
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}
	return options
}

func checkAlgorithm(token string) error {
	msg, err := jws.ParseString(token)
	if err != nil {
		return err
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return errors.New("auth: expected exactly one signature")
	}
	headers := sigs[0].ProtectedHeaders()
	if headers == nil {
		return errors.New("auth: token missing protected headers")
	}
	if alg := headers.Algorithm(); alg != jwa.HS256 {
		return fmt.Errorf("auth: unexpected token algorithm %q", alg)
	}
	return nil
}

func rolesOf(tok jwt.Token) []string {
	raw, ok := tok.Get(rolesClaim)
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		roles := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
		return roles
	case string:
		return strings.Fields(v)
	}
	return nil
}

func unauthorized(message string, err error) *common.AppError {
	return common.NewAppError("UNAUTHORIZED", message, http.StatusUnauthorized, err)
}
