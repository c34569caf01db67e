package cms

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultScope keys the token used for recipe publication.
const DefaultScope = "ricetta"

// TokenProvider returns a bearer token for the given scope.
type TokenProvider interface {
	Token(ctx context.Context, scope string) (string, error)
}

// OAuth2Provider obtains tokens with the client-credentials grant,
// sending the credentials in the request body. It keeps one reusable
// token source per scope key.
type OAuth2Provider struct {
	cfg        clientcredentials.Config
	httpClient *http.Client

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// AuthOption configures the OAuth2Provider.
type AuthOption func(*OAuth2Provider)

// WithTokenHTTPClient sets the HTTP client used against the token endpoint.
func WithTokenHTTPClient(hc *http.Client) AuthOption {
	return func(p *OAuth2Provider) {
		p.httpClient = hc
	}
}

// NewOAuth2Provider creates a client-credentials token provider.
func NewOAuth2Provider(tokenURL, clientID, clientSecret string, opts ...AuthOption) *OAuth2Provider {
	p := &OAuth2Provider{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sources:    make(map[string]oauth2.TokenSource),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns a cached token for scope, fetching a new one when the cached
// token is missing or expired.
func (p *OAuth2Provider) Token(ctx context.Context, scope string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "cms: token")
	}

	tok, err := p.source(scope).Token()
	if err != nil {
		return "", eris.Wrapf(err, "cms: token for scope %q", scope)
	}
	if tok.AccessToken == "" {
		return "", eris.Errorf("cms: empty access token for scope %q", scope)
	}
	return tok.AccessToken, nil
}

func (p *OAuth2Provider) source(scope string) oauth2.TokenSource {
	p.mu.Lock()
	defer p.mu.Unlock()

	if src, ok := p.sources[scope]; ok {
		return src
	}
	// The source outlives any single request, so it is bound to a
	// background context carrying only the HTTP client.
	bg := context.WithValue(context.Background(), oauth2.HTTPClient, p.httpClient)
	src := p.cfg.TokenSource(bg)
	p.sources[scope] = src
	return src
}
