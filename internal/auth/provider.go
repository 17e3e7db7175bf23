package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// maxTokenResponse bounds the token endpoint body read into memory.
const maxTokenResponse = 1 << 20

// ProviderConfig holds the OAuth2 client registration at the identity provider.
type ProviderConfig struct {
	// ClientID is the OAuth2 client identifier.
	ClientID string
	// ClientSecret is the OAuth2 client secret.
	ClientSecret string
	// AuthorizeURL is the provider authorization endpoint.
	AuthorizeURL string
	// TokenURL is the provider token endpoint.
	TokenURL string
	// RedirectURL is where the provider sends the browser back to.
	RedirectURL string
	// Scopes are requested in order and joined by a space.
	Scopes []string
	// Timeout of the token request, 0 means none.
	Timeout time.Duration
}

// Provider builds authorization redirects and exchanges codes for tokens.
type Provider struct {
	oauth2 oauth2.Config
	secret string
	client *http.Client
	now    func() time.Time
}

// NewProvider creates a provider. A nil client gets a default client with cfg.Timeout.
func NewProvider(cfg *ProviderConfig, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Provider{
		oauth2: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		secret: cfg.ClientSecret,
		client: client,
		now:    time.Now,
	}
}

// AuthURL returns the authorization URL carrying state.
func (p *Provider) AuthURL(state string) string {
	return p.oauth2.AuthCodeURL(state, oauth2.SetAuthURLParam("response_mode", "query"))
}

// Exchange posts the authorization code to the token endpoint.
//
// Non-2xx responses are returned as *oauth2.RetrieveError. A 2xx response
// without id_token is ErrNoIDToken. oauth2.Config.Exchange is not used since
// it rejects responses lacking an access_token.
func (p *Provider) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	form := url.Values{
		"client_id":     {p.oauth2.ClientID},
		"scope":         {strings.Join(p.oauth2.Scopes, " ")},
		"code":          {code},
		"redirect_uri":  {p.oauth2.RedirectURL},
		"grant_type":    {"authorization_code"},
		"client_secret": {p.secret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.oauth2.Endpoint.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build token request")
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "token request failed")
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read token response")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, retrieveError(resp, body)
	}

	return ParseTokenSet(body, p.now())
}

func retrieveError(resp *http.Response, body []byte) *oauth2.RetrieveError {
	rErr := &oauth2.RetrieveError{Response: resp, Body: body}

	var e struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorURI         string `json:"error_uri"`
	}

	if json.Unmarshal(body, &e) == nil {
		rErr.ErrorCode = e.Error
		rErr.ErrorDescription = e.ErrorDescription
		rErr.ErrorURI = e.ErrorURI
	}

	return rErr
}
