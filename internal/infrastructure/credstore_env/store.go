package credstore_env

import (
	"context"
	"fmt"
	"os"

	"github.com/davarch/ci-runner/internal/domain"
)

// Entry names where a credential's parts come from. Env vars win over
// literal values.
type Entry struct {
	UsernameEnv string
	PasswordEnv string
	Username    string
	Password    string
}

type Store struct {
	entries map[string]Entry
}

func New(entries map[string]Entry) *Store {
	return &Store{entries: entries}
}

func (s *Store) Lookup(_ context.Context, name string) (domain.Credentials, error) {
	e, ok := s.entries[name]
	if !ok {
		return domain.Credentials{}, fmt.Errorf("unknown credential entry %q", name)
	}

	user := resolve(e.UsernameEnv, e.Username)
	pass := resolve(e.PasswordEnv, e.Password)
	if user == "" || pass == "" {
		return domain.Credentials{}, fmt.Errorf("credential entry %q is incomplete", name)
	}

	return domain.Credentials{Username: user, Password: pass}, nil
}

func resolve(envVar, literal string) string {
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
		return ""
	}
	return literal
}
