// ABOUTME: OAuth2 installed-app flow for the YouTube Data API
// ABOUTME: Tokens are cached as JSON and refreshed tokens are written back
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	yt "google.golang.org/api/youtube/v3"

	"github.com/harper/orpheo/internal/logging"
)

// DefaultTokenFile is where the OAuth token is cached
const DefaultTokenFile = "token.json"

// Authenticator obtains a token source for the YouTube API
type Authenticator struct {
	SecretsFile string
	TokenFile   string
	// Prompt receives the URL the user must open to grant access
	Prompt io.Writer
	Logger *slog.Logger
}

// TokenSource returns a refreshing token source, running the browser flow
// when no cached token exists
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	logger := logging.OrDefault(a.Logger)
	tokenFile := a.TokenFile
	if tokenFile == "" {
		tokenFile = DefaultTokenFile
	}

	secrets, err := os.ReadFile(a.SecretsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets: %w", err)
	}
	cfg, err := google.ConfigFromJSON(secrets, yt.YoutubeReadonlyScope, yt.YoutubeForceSslScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets: %w", err)
	}

	token, err := loadToken(tokenFile)
	if err != nil {
		logger.Info("no cached token, starting authorization", "token_file", tokenFile)
		token, err = a.authorize(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, token); err != nil {
			return nil, err
		}
	}

	return &persistingTokenSource{
		base:   cfg.TokenSource(ctx, token),
		path:   tokenFile,
		last:   token.AccessToken,
		logger: logger,
	}, nil
}

func (a *Authenticator) authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	state := uuid.New().String()
	server := NewCallbackServer(state)
	if err := server.Start(); err != nil {
		return nil, err
	}
	defer server.Stop()

	cfg.RedirectURL = server.RedirectURI()
	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)

	prompt := a.Prompt
	if prompt == nil {
		prompt = os.Stderr
	}
	fmt.Fprintf(prompt, "Open this URL in your browser to authorize access:\n\n  %s\n\n", url)

	code, err := server.WaitForCode(ctx)
	if err != nil {
		return nil, err
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// persistingTokenSource writes refreshed tokens back to disk
type persistingTokenSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	path   string
	last   string
	logger *slog.Logger
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		p.last = token.AccessToken
		if err := saveToken(p.path, token); err != nil {
			p.logger.Warn("failed to persist refreshed token", "error", err)
		}
	}
	return token, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	return &token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}
