package security

import (
	"errors"
	"testing"
)

func TestCheckPasswordPolicy(t *testing.T) {
	cases := []struct {
		password string
		want     error
	}{
		{"Ab1!", ErrPasswordTooShort},
		{"abcdefgh1!", ErrPasswordTooWeak},
		{"Abcdefghi!", ErrPasswordTooWeak},
		{"Abcdefgh12", ErrPasswordTooWeak},
		{"Abcdefg1!", nil},
	}
	for _, tc := range cases {
		if err := CheckPasswordPolicy(tc.password); !errors.Is(err, tc.want) {
			t.Fatalf("CheckPasswordPolicy(%q) = %v, want %v", tc.password, err, tc.want)
		}
	}
}

func TestHashPasswordRejectsWeakPassword(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Fatalf("expected error for short password")
	}
}

func TestHashPasswordAndVerify(t *testing.T) {
	password := "Matkhau#2024"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !VerifyPassword(password, hash) {
		t.Fatalf("expected password verification to succeed")
	}
	if VerifyPassword("Matkhau#2025", hash) {
		t.Fatalf("expected wrong password verification to fail")
	}
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	for _, encoded := range []string{
		"",
		"v2$120000$c2FsdA$ZGlnZXN0",
		"v1$10$c2FsdA$ZGlnZXN0",
		"v1$120000$$ZGlnZXN0",
		"v1$120000$c2FsdA$short",
	} {
		if VerifyPassword("Matkhau#2024", encoded) {
			t.Fatalf("VerifyPassword accepted %q", encoded)
		}
	}
}
