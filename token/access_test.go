package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "this-is-a-32-character-secret!!!"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestIssuer(t *testing.T, clock *fakeClock) *AccessIssuer {
	t.Helper()
	a, err := NewAccessIssuer(&Config{
		Secret:         testSecret,
		AccessTokenTTL: 15 * time.Minute,
		Now:            clock.Now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func TestNewAccessIssuer(t *testing.T) {
	tests := []struct {
		name          string
		secret        string
		signingMethod string
		wantErr       error
	}{
		{"HS256", testSecret, "HS256", nil},
		{"HS384", testSecret, "HS384", nil},
		{"HS512", testSecret, "HS512", nil},
		{"default", testSecret, "", nil},
		{"RS256 unsupported", testSecret, "RS256", ErrUnsupportedSigningMethod},
		{"missing secret", "", "HS256", ErrMissingSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAccessIssuer(&Config{Secret: tt.secret, SigningMethod: tt.signingMethod})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewAccessIssuer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewAccessIssuer(nil); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("nil config: expected ErrMissingSecret, got %v", err)
	}
}

func TestAccessIssuer_IssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	a := newTestIssuer(t, clock)

	signed, expiresAt, err := a.Issue("user-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := clock.t.Add(15 * time.Minute); !expiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, want)
	}
	if parts := strings.Split(signed, "."); len(parts) != 3 {
		t.Fatalf("expected compact JWT, got %q", signed)
	}

	sub, err := a.Verify(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != "user-123" {
		t.Errorf("subject = %q, want user-123", sub)
	}
}

func TestAccessIssuer_Claims(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	a := newTestIssuer(t, clock)

	signed, _, _ := a.Issue("user-1")

	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(signed, claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if claims["sub"] != "user-1" {
		t.Errorf("sub = %v", claims["sub"])
	}
	iat, _ := claims.GetIssuedAt()
	exp, _ := claims.GetExpirationTime()
	if !iat.Time.Equal(clock.t) {
		t.Errorf("iat = %v, want %v", iat.Time, clock.t)
	}
	if exp.Sub(iat.Time) != 15*time.Minute {
		t.Errorf("exp - iat = %v, want 15m", exp.Sub(iat.Time))
	}
	if len(claims) != 3 {
		t.Errorf("expected only sub, iat and exp, got %v", claims)
	}
}

func TestAccessIssuer_Issue_EmptySubject(t *testing.T) {
	a := newTestIssuer(t, &fakeClock{t: time.Now()})

	if _, _, err := a.Issue(""); !errors.Is(err, ErrMissingSubject) {
		t.Errorf("expected ErrMissingSubject, got %v", err)
	}
}

func TestAccessIssuer_Verify_Expired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	a := newTestIssuer(t, clock)

	signed, _, _ := a.Issue("user-1")

	clock.Advance(14 * time.Minute)
	if _, err := a.Verify(signed); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	clock.Advance(2 * time.Minute)
	if _, err := a.Verify(signed); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAccessIssuer_Verify_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	a := newTestIssuer(t, clock)
	other, _ := NewAccessIssuer(&Config{Secret: "another-32-character-secret-value", Now: clock.Now})

	signed, _, _ := other.Issue("user-1")
	if _, err := a.Verify(signed); !errors.Is(err, ErrTokenInvalidSig) {
		t.Errorf("expected ErrTokenInvalidSig, got %v", err)
	}
}

func TestAccessIssuer_Verify_Malformed(t *testing.T) {
	a := newTestIssuer(t, &fakeClock{t: time.Now()})

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two parts", "abc.def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Verify(tt.token); !errors.Is(err, ErrTokenMalformed) {
				t.Errorf("expected ErrTokenMalformed, got %v", err)
			}
		})
	}
}

func TestAccessIssuer_Verify_RejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	a := newTestIssuer(t, clock)

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := a.Verify(unsigned); !errors.Is(err, ErrTokenInvalidSig) {
		t.Errorf("expected ErrTokenInvalidSig for alg none, got %v", err)
	}
}

func TestAccessIssuer_Verify_MissingSubject(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	a := newTestIssuer(t, clock)

	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))

	if _, err := a.Verify(signed); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestAccessIssuer_Verify_MissingExpiry(t *testing.T) {
	a := newTestIssuer(t, &fakeClock{t: time.Now()})

	claims := jwt.RegisteredClaims{Subject: "user-1"}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))

	if _, err := a.Verify(signed); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestAccessIssuer_SigningMethods(t *testing.T) {
	for _, method := range []string{"HS256", "HS384", "HS512"} {
		t.Run(method, func(t *testing.T) {
			a, err := NewAccessIssuer(&Config{Secret: testSecret, SigningMethod: method})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			signed, _, err := a.Issue("user-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			tok, _, _ := jwt.NewParser().ParseUnverified(signed, &jwt.RegisteredClaims{})
			if tok.Method.Alg() != method {
				t.Errorf("alg = %s, want %s", tok.Method.Alg(), method)
			}
			if _, err := a.Verify(signed); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestMapJWTError(t *testing.T) {
	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{"nil", nil, nil},
		{"expired", jwt.ErrTokenExpired, ErrTokenExpired},
		{"not valid yet", jwt.ErrTokenNotValidYet, ErrTokenNotYetValid},
		{"malformed", jwt.ErrTokenMalformed, ErrTokenMalformed},
		{"signature invalid", jwt.ErrTokenSignatureInvalid, ErrTokenInvalidSig},
		{"unverifiable", jwt.ErrTokenUnverifiable, ErrTokenInvalidSig},
		{"unknown", errors.New("boom"), ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapJWTError(tt.input); !errors.Is(got, tt.expected) {
				t.Errorf("mapJWTError(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
