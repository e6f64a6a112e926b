package credstore_env

import (
	"context"
	"strings"
	"testing"

	"github.com/davarch/ci-runner/internal/domain"
)

func TestLookup_FromEnv(t *testing.T) {
	t.Setenv("REG_USER", "ci-bot")
	t.Setenv("REG_PASS", "s3cret")

	s := New(map[string]Entry{
		"registry": {UsernameEnv: "REG_USER", PasswordEnv: "REG_PASS"},
	})

	c, err := s.Lookup(context.Background(), "registry")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Username != "ci-bot" || c.Password != "s3cret" {
		t.Errorf("unexpected credentials: %+v", c.Username)
	}
}

func TestLookup_Literals(t *testing.T) {
	s := New(map[string]Entry{
		"registry": {Username: "u", Password: "p"},
	})

	c, err := s.Lookup(context.Background(), "registry")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Username != "u" || c.Password != "p" {
		t.Error("literal values not used")
	}
}

func TestLookup_UnknownEntry(t *testing.T) {
	s := New(nil)
	if _, err := s.Lookup(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown entry")
	}
}

func TestLookup_MissingEnvIsIncomplete(t *testing.T) {
	s := New(map[string]Entry{
		"registry": {UsernameEnv: "DOES_NOT_EXIST_USER", PasswordEnv: "DOES_NOT_EXIST_PASS"},
	})
	if _, err := s.Lookup(context.Background(), "registry"); err == nil {
		t.Error("expected error for unresolved env vars")
	}
}

func TestCredentials_StringIsRedacted(t *testing.T) {
	c := domain.Credentials{Username: "u", Password: "hunter2"}
	if strings.Contains(c.String(), "hunter2") {
		t.Error("String() leaks the password")
	}
}
