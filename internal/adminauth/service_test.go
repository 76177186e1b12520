package adminauth

import (
	"errors"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
)

// Low-cost parameters keep the hashing tests fast; production uses
// DefaultArgon2idParams.
func testParams() Argon2idParams {
	return Argon2idParams{
		MemoryKiB:   8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func testConfig(t *testing.T, password string) Config {
	t.Helper()

	hash, err := HashPassword(password, testParams())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return Config{
		PasswordHash: hash,
		SecretKeyHex: paseto.NewV4AsymmetricSecretKey().ExportHex(),
		TokenTTL:     time.Hour,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery", testParams())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := VerifyPassword("correct horse battery", hash)
	if err != nil || !ok {
		t.Fatalf("verify ok=%v err=%v, want match", ok, err)
	}

	ok, err = VerifyPassword("wrong password!!", hash)
	if err != nil || ok {
		t.Fatalf("verify ok=%v err=%v, want mismatch", ok, err)
	}
}

func TestHashPassword_RejectsShort(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("short", testParams()); err == nil {
		t.Fatalf("expected error for short password")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"not-a-phc-hash",
		"$argon2id$v=19$m=65536,t=3,p=1$onlysalt",
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA",
	}
	for _, h := range cases {
		if _, err := VerifyPassword("whatever123", h); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("hash %q: err = %v, want ErrInvalidHash", h, err)
		}
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	t.Parallel()

	svc, err := NewService(testConfig(t, "hunter2hunter2"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	now := time.Now().UTC()

	token, expires, err := svc.Login("hunter2hunter2", now)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatalf("empty token")
	}
	if !expires.After(now) {
		t.Fatalf("expires = %v, want after %v", expires, now)
	}

	if err := svc.Authenticate(token, now.Add(time.Minute)); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, err := NewService(testConfig(t, "hunter2hunter2"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	_, _, err = svc.Login("not-the-password", time.Now().UTC())
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_NotConfigured(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "hunter2hunter2")
	cfg.PasswordHash = ""
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	_, _, err = svc.Login("anything-at-all", time.Now().UTC())
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestAuthenticate_Expired(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "hunter2hunter2")
	cfg.TokenTTL = time.Minute
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	now := time.Now().UTC()

	token, _, err := svc.Login("hunter2hunter2", now)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Authenticate(token, now.Add(2*time.Minute)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	t.Parallel()

	svc, err := NewService(testConfig(t, "hunter2hunter2"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	cases := []string{"", "   ", "v4.public.not-a-real-token"}
	for _, tok := range cases {
		if err := svc.Authenticate(tok, time.Now().UTC()); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: err = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestAuthenticate_ForeignKey(t *testing.T) {
	t.Parallel()

	svc, err := NewService(testConfig(t, "hunter2hunter2"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	other, err := NewService(testConfig(t, "hunter2hunter2"))
	if err != nil {
		t.Fatalf("other service: %v", err)
	}
	now := time.Now().UTC()

	token, _, err := other.Login("hunter2hunter2", now)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Signed by a different key, so verification must fail.
	if err := svc.Authenticate(token, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestNewService_BadKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "hunter2hunter2")
	cfg.SecretKeyHex = "deadbeef"
	if _, err := NewService(cfg); err == nil {
		t.Fatalf("expected error for malformed signing key")
	}
}
