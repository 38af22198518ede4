package tokensource

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// NewTransport wraps base with bearer-token authentication sourced from the
// store. The key is read once and reused for the lifetime of the transport;
// rotating it requires a restart.
func NewTransport(base http.RoundTripper, store TokenStore) http.RoundTripper {
	return &oauth2.Transport{
		Base:   base,
		Source: oauth2.ReuseTokenSource(nil, &storeTokenSource{store: store}),
	}
}

// storeTokenSource adapts a TokenStore to oauth2.TokenSource. API keys do not
// expire, so the returned token has no expiry and ReuseTokenSource caches it
// indefinitely.
type storeTokenSource struct {
	store TokenStore
}

var _ oauth2.TokenSource = (*storeTokenSource)(nil)

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.store.Read(context.Background())
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: token}, nil
}
