package auth

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// TokenSet is the token endpoint response kept in the session.
type TokenSet struct {
	AccessToken  string          `json:"access_token,omitempty"`
	TokenType    string          `json:"token_type,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	IDToken      string          `json:"id_token"`
	Scope        string          `json:"scope,omitempty"`
	ExpiresIn    ExpiresIn       `json:"expires_in,omitempty"`
	Expiry       time.Time       `json:"expiry,omitzero"`
	Raw          json.RawMessage `json:"raw,omitempty"` // unmodified response body
}

// ExpiresIn is the expires_in lifetime in seconds. Entra v1 and ADFS token
// endpoints send it as a string, so both a number and a numeric string decode.
type ExpiresIn int64

// UnmarshalJSON implements json.Unmarshaler.
func (e *ExpiresIn) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" || string(b) == `""` {
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err //nolint:wrapcheck
	}

	i, err := n.Int64()
	if err != nil {
		return err //nolint:wrapcheck
	}

	if i > math.MaxInt32 {
		i = math.MaxInt32
	}

	*e = ExpiresIn(i)

	return nil
}

// ParseTokenSet decodes a token endpoint response body. now anchors the
// expiry computed from expires_in.
func ParseTokenSet(body []byte, now time.Time) (*TokenSet, error) {
	var ts TokenSet

	if err := json.Unmarshal(body, &ts); err != nil {
		return nil, errors.Wrap(ErrMalformedTokenResponse, err.Error())
	}

	if ts.IDToken == "" {
		return nil, ErrNoIDToken
	}

	if ts.ExpiresIn > 0 {
		ts.Expiry = now.Add(time.Duration(ts.ExpiresIn) * time.Second)
	}

	ts.Expiry = ts.Expiry.UTC()
	ts.Raw = append(json.RawMessage(nil), body...)

	return &ts, nil
}

// Token converts the set into an oauth2.Token carrying the raw response as extra fields.
func (t *TokenSet) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}

	var extra map[string]any
	if len(t.Raw) > 0 && json.Unmarshal(t.Raw, &extra) == nil {
		return tok.WithExtra(extra)
	}

	return tok.WithExtra(map[string]any{"id_token": t.IDToken})
}

// Claims returns the decoded identity token payload.
func (t *TokenSet) Claims() (string, error) {
	return DecodeIDTokenPayload(t.IDToken)
}

// DecodeIDTokenPayload base64url-decodes the second segment of a compact token
// into UTF-8 text. The signature is not checked. Padding and the standard
// alphabet are tolerated, invalid UTF-8 sequences are replaced.
func DecodeIDTokenPayload(raw string) (string, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 { //nolint:mnd
		return "", errors.Wrap(ErrMalformedIDToken, "expected header.payload.signature")
	}

	segment := strings.TrimRight(parts[1], "=")

	enc := base64.RawURLEncoding
	if strings.ContainsAny(segment, "+/") {
		enc = base64.RawStdEncoding
	}

	payload, err := enc.DecodeString(segment)
	if err != nil {
		return "", errors.Wrap(ErrMalformedIDToken, err.Error())
	}

	if !utf8.Valid(payload) {
		return strings.ToValidUTF8(string(payload), "�"), nil
	}

	return string(payload), nil
}
