package auth

import (
	"testing"
	"time"
)

func TestHS256RoundTrip(t *testing.T) {
	token, err := Issue("09171234567", RoleClient, time.Hour, "test-secret")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Sub != "09171234567" || parsed.Role != RoleClient {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret"); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := SignHS256(Claims{
		Sub:  "ops",
		Role: RoleAdmin,
		Iat:  time.Now().Add(-2 * time.Hour).Unix(),
		Exp:  time.Now().Add(-time.Hour).Unix(),
	}, "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "s"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		in    string
		token string
		ok    bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := BearerToken(tc.in)
		if got != tc.token || ok != tc.ok {
			t.Fatalf("BearerToken(%q) = %q, %v", tc.in, got, ok)
		}
	}
}
