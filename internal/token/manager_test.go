package token

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pranaynookala001/securedocs/internal/models"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		SigningKey: testKey,
		Issuer:     "securedocs",
		Audience:   "securedocs-clients",
		AccessTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func testUser() *models.User {
	return &models.User{
		ID:               uuid.New(),
		Username:         "alice",
		Email:            "alice@example.com",
		Role:             models.RoleViewer,
		EmailVerified:    true,
		TwoFactorEnabled: false,
	}
}

func TestIssueParseRoundTrip(t *testing.T) {
	m := testManager(t)
	user := testUser()

	tokenStr, err := m.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Parse(tokenStr)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != user.ID.String() {
		t.Errorf("subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Name != "alice" || claims.Email != "alice@example.com" {
		t.Errorf("identity claims = %q/%q", claims.Name, claims.Email)
	}
	if claims.Role != "Viewer" {
		t.Errorf("role = %q, want Viewer", claims.Role)
	}
	if !claims.EmailVerified || claims.TwoFactorEnabled {
		t.Errorf("boolean claims = %v/%v", claims.EmailVerified, claims.TwoFactorEnabled)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	m := testManager(t)

	tokenStr, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewManager(Config{
		SigningKey: []byte("ffffffffffffffffffffffffffffffff"),
		Issuer:     "securedocs",
		Audience:   "securedocs-clients",
		AccessTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if other.Validate(tokenStr) {
		t.Fatal("token signed with a different key must not validate")
	}
}

func TestParseRejectsIssuerAudienceMismatch(t *testing.T) {
	m := testManager(t)
	tokenStr, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []Config{
		{SigningKey: testKey, Issuer: "someone-else", Audience: "securedocs-clients", AccessTTL: time.Hour},
		{SigningKey: testKey, Issuer: "securedocs", Audience: "other-clients", AccessTTL: time.Hour},
	}
	for i, cfg := range cases {
		other, err := NewManager(cfg)
		if err != nil {
			t.Fatalf("case %d: NewManager: %v", i, err)
		}
		if other.Validate(tokenStr) {
			t.Errorf("case %d: token must not validate across issuer/audience", i)
		}
	}
}

func TestParseRejectsExpiredWithZeroLeeway(t *testing.T) {
	m := testManager(t)
	user := testUser()

	m.now = func() time.Time { return time.Now().Add(-time.Hour - time.Second) }
	tokenStr, err := m.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.now = time.Now
	if m.Validate(tokenStr) {
		t.Fatal("expired token must not validate")
	}
}

func TestValidateNeverPanicsOnGarbage(t *testing.T) {
	m := testManager(t)
	for _, input := range []string{"", "garbage", "a.b.c", "ey.ey.ey"} {
		if m.Validate(input) {
			t.Errorf("garbage input %q validated", input)
		}
	}
}

func TestNewManagerValidatesConfig(t *testing.T) {
	bad := []Config{
		{SigningKey: []byte("short"), Issuer: "i", Audience: "a", AccessTTL: time.Hour},
		{SigningKey: testKey, Issuer: "", Audience: "a", AccessTTL: time.Hour},
		{SigningKey: testKey, Issuer: "i", Audience: "", AccessTTL: time.Hour},
		{SigningKey: testKey, Issuer: "i", Audience: "a", AccessTTL: 0},
	}
	for i, cfg := range bad {
		if _, err := NewManager(cfg); err == nil {
			t.Errorf("case %d: expected config error", i)
		}
	}
}

func TestRefreshTokenCodec(t *testing.T) {
	value, digest, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if value == "" || digest == "" {
		t.Fatal("empty token or digest")
	}
	if HashRefreshToken(value) != digest {
		t.Fatal("digest must be recomputable from the raw value")
	}

	second, _, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if value == second {
		t.Fatal("token values must be unique")
	}
}
