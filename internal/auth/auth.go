// Package auth obtains, persists and refreshes the Spotify user token.
package auth

import (
	"context"
	"discovernow/internal/config"
	"discovernow/internal/logging"
	"discovernow/internal/store"
	"discovernow/internal/utils"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// ErrUnauthenticated is returned when no usable token is available
var ErrUnauthenticated = errors.New("not logged in to spotify, run `discovernow login`")

// refreshWindow is how close to expiry a token is refreshed ahead of use
const refreshWindow = 5 * time.Minute

// Scopes are the permissions requested at login
var Scopes = []string{
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
}

// Provider hands out a valid Spotify token. It loads the token from the
// TokenStore, refreshes it shortly before expiry and saves every new token.
type Provider struct {
	oauth  *oauth2.Config
	tokens store.TokenStore
	log    zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

// NewProvider creates a Provider for the Spotify application in cfg
func NewProvider(cfg config.SpotifyConfig, tokens store.TokenStore) *Provider {
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		tokens: tokens,
		log:    logging.WithComponent("auth"),
		now:    time.Now,
	}
}

// ValidToken returns the current token, refreshing it when it expires within
// five minutes
func (p *Provider) ValidToken(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == nil {
		tok, err := p.tokens.LoadToken(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		if err != nil {
			return nil, fmt.Errorf("error loading token: %w", err)
		}
		p.token = tok
	}

	if p.token.Expiry.IsZero() || p.token.Expiry.After(p.now().Add(refreshWindow)) {
		return p.token, nil
	}
	return p.refreshLocked(ctx)
}

// Refresh exchanges the refresh token for a new access token regardless of
// the current token's expiry
func (p *Provider) Refresh(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == nil {
		tok, err := p.tokens.LoadToken(ctx)
		if err != nil {
			return nil, ErrUnauthenticated
		}
		p.token = tok
	}
	return p.refreshLocked(ctx)
}

func (p *Provider) refreshLocked(ctx context.Context) (*oauth2.Token, error) {
	if p.token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token has no refresh token", ErrUnauthenticated)
	}

	// an empty access token forces the source to refresh
	src := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: p.token.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		p.log.Warn().Err(err).Msg("token refresh failed")
		return nil, fmt.Errorf("%w: refresh failed: %v", ErrUnauthenticated, err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = p.token.RefreshToken
	}

	if err := p.tokens.SaveToken(ctx, tok); err != nil {
		return nil, fmt.Errorf("error saving token: %w", err)
	}
	p.token = tok
	p.log.Debug().Time("expiry", tok.Expiry).Msg("token refreshed")
	return tok, nil
}

// Client returns an HTTP client that authorizes every request with the
// provider's token
func (p *Provider) Client() *http.Client {
	return &http.Client{Transport: &Transport{Provider: p}}
}

// Login runs the authorization code flow: it serves the redirect URL, shows
// the consent page through open and stores the resulting token. open
// defaults to utils.OpenBrowser.
func (p *Provider) Login(ctx context.Context, open func(url string) error) (*oauth2.Token, error) {
	redirect, err := url.Parse(p.oauth.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("invalid redirect url %q", p.oauth.RedirectURL)
	}

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("error listening on %s: %w", redirect.Host, err)
	}
	return p.login(ctx, ln, redirect.Path, open)
}

type loginResult struct {
	token *oauth2.Token
	err   error
}

func (p *Provider) login(ctx context.Context, ln net.Listener, path string, open func(string) error) (*oauth2.Token, error) {
	if open == nil {
		open = utils.OpenBrowser
	}
	if path == "" {
		path = "/"
	}

	state, err := utils.GenerateState()
	if err != nil {
		return nil, err
	}

	results := make(chan loginResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		tok, err := p.completeAuth(r, state)
		if err != nil {
			http.Error(w, "Couldn't get token", http.StatusForbidden)
		} else {
			fmt.Fprintf(w, "Login Completed! You can now close this window.")
		}
		select {
		case results <- loginResult{token: tok, err: err}:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- loginResult{err: err}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := p.oauth.AuthCodeURL(state)
	if err := open(authURL); err != nil {
		p.log.Warn().Err(err).Msg("could not open browser")
	}
	fmt.Println("Please log in to Spotify by visiting the following page in your browser:", authURL)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		p.mu.Lock()
		p.token = res.token
		p.mu.Unlock()
		return res.token, nil
	}
}

// completeAuth is the callback handler for the Spotify auth flow
func (p *Provider) completeAuth(r *http.Request, state string) (*oauth2.Token, error) {
	values := r.URL.Query()
	if e := values.Get("error"); e != "" {
		return nil, fmt.Errorf("spotify denied authorization: %s", e)
	}
	if st := values.Get("state"); st != state {
		return nil, fmt.Errorf("state mismatch: %s != %s", st, state)
	}
	code := values.Get("code")
	if code == "" {
		return nil, errors.New("callback carried no authorization code")
	}

	tok, err := p.oauth.Exchange(r.Context(), code)
	if err != nil {
		return nil, fmt.Errorf("error exchanging code: %w", err)
	}
	if err := p.tokens.SaveToken(r.Context(), tok); err != nil {
		return nil, fmt.Errorf("error saving token: %w", err)
	}
	return tok, nil
}
