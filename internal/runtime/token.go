package runtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

const keyringService = "labelfwd"

// TokenStore persists the OAuth token between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
}

// FileTokenStore keeps the token as JSON on disk, the way gmailctl keeps
// token.json next to credentials.json.
type FileTokenStore struct {
	Path string
}

func (f FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

func (f FileTokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("replace token: %w", err)
	}
	return nil
}

// KeyringTokenStore keeps the token in the OS keyring (macOS Keychain,
// Windows Credential Manager or Linux Secret Service).
type KeyringTokenStore struct {
	Account string
}

func (k KeyringTokenStore) Load() (*oauth2.Token, error) {
	data, err := keyring.Get(keyringService, k.Account)
	if err != nil {
		return nil, fmt.Errorf("load token from keyring: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(data), &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

func (k KeyringTokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := keyring.Set(keyringService, k.Account, string(data)); err != nil {
		return fmt.Errorf("save token to keyring: %w", err)
	}
	return nil
}

// NewTokenStore picks a store by kind: "file" or "keyring".
func NewTokenStore(kind, path, account string) (TokenStore, error) {
	switch kind {
	case "", "file":
		return FileTokenStore{Path: path}, nil
	case "keyring":
		return KeyringTokenStore{Account: account}, nil
	default:
		return nil, fmt.Errorf("unknown token store %q", kind)
	}
}

// persistingTokenSource saves every token the base source refreshes.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	store  TokenStore
	logger *slog.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || tok.AccessToken != p.last.AccessToken {
		if saveErr := p.store.Save(tok); saveErr != nil && p.logger != nil {
			p.logger.Warn("could not persist refreshed token", "error", saveErr)
		}
		p.last = tok
	}
	return tok, nil
}
