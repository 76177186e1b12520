package adminauth

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

const adminSubject = "admin"

// TokenManager issues and verifies PASETO v4.public admin access tokens.
type TokenManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration

	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

// NewTokenManager builds a manager from a hex-encoded Ed25519 secret key.
func NewTokenManager(secretKeyHex, issuer string, ttl, clockSkew time.Duration) (*TokenManager, error) {
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(secretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}
	if issuer == "" || ttl <= 0 {
		return nil, ErrConfig
	}
	return &TokenManager{
		issuer:    issuer,
		ttl:       ttl,
		clockSkew: clockSkew,
		secret:    secret,
		public:    secret.Public(),
	}, nil
}

// Issue signs an admin access token valid from now for the configured TTL.
func (m *TokenManager) Issue(now time.Time) (string, time.Time, error) {
	exp := now.Add(m.ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(m.issuer)
	tok.SetSubject(adminSubject)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)

	return tok.V4Sign(m.secret, nil), exp, nil
}

// Verify parses and validates an admin access token.
func (m *TokenManager) Verify(token string, now time.Time) error {
	// Validate slightly in the future to tolerate minor clock differences;
	// this also tightens expiry checks, which is the safer direction.
	validNow := now.Add(m.clockSkew)

	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(m.issuer))
	p.AddRule(paseto.Subject(adminSubject))
	p.AddRule(paseto.NotExpired())
	p.AddRule(paseto.ValidAt(validNow))

	if _, err := p.ParseV4Public(m.public, token, nil); err != nil {
		return ErrInvalidToken
	}
	return nil
}
