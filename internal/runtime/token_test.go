package runtime

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	store := FileTokenStore{Path: filepath.Join(t.TempDir(), "nested", "token.json")}
	if _, err := store.Load(); err == nil {
		t.Fatalf("expected error loading a missing token")
	}
	want := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestNewTokenStore(t *testing.T) {
	if s, err := NewTokenStore("", "/tmp/t.json", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	} else if _, ok := s.(FileTokenStore); !ok {
		t.Fatalf("expected file store, got %T", s)
	}
	if s, err := NewTokenStore("keyring", "", "me@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	} else if k, ok := s.(KeyringTokenStore); !ok || k.Account != "me@example.com" {
		t.Fatalf("expected keyring store, got %#v", s)
	}
	if _, err := NewTokenStore("vault", "", ""); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

type memoryStore struct {
	saved []*oauth2.Token
	err   error
}

func (m *memoryStore) Load() (*oauth2.Token, error) { return nil, errors.New("unused") }

func (m *memoryStore) Save(tok *oauth2.Token) error {
	m.saved = append(m.saved, tok)
	return m.err
}

type sequenceSource struct{ tokens []*oauth2.Token }

func (s *sequenceSource) Token() (*oauth2.Token, error) {
	tok := s.tokens[0]
	if len(s.tokens) > 1 {
		s.tokens = s.tokens[1:]
	}
	return tok, nil
}

func TestPersistingTokenSourceSavesRefreshes(t *testing.T) {
	initial := &oauth2.Token{AccessToken: "a1"}
	refreshed := &oauth2.Token{AccessToken: "a2"}
	store := &memoryStore{err: errors.New("disk full")}
	ts := &persistingTokenSource{
		base:   &sequenceSource{tokens: []*oauth2.Token{initial, initial, refreshed, refreshed}},
		store:  store,
		last:   initial,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for i := 0; i < 4; i++ {
		if _, err := ts.Token(); err != nil {
			t.Fatalf("token: %v", err)
		}
	}
	if len(store.saved) != 1 || store.saved[0].AccessToken != "a2" {
		t.Fatalf("expected exactly the refreshed token saved, got %+v", store.saved)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger(io.Discard, "debug", "json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewLogger(io.Discard, "loud", "text"); err == nil {
		t.Fatalf("expected bad level error")
	}
	if _, err := NewLogger(io.Discard, "info", "xml"); err == nil {
		t.Fatalf("expected bad format error")
	}
}
