package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrIdentityRejected signals that the identity provider did not accept the
// presented credential. It always maps to an authentication failure, never
// to an internal error.
var ErrIdentityRejected = errors.New("identity token rejected")

// Identity is the verified subject returned by the identity provider. The
// service trusts it as ground truth for account identity.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
}

// IdentityVerifier validates a bearer credential with an external identity
// provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

const (
	googleTokenInfoURL   = "https://oauth2.googleapis.com/tokeninfo"
	identityVerifyWindow = 5 * time.Second
)

// GoogleVerifier verifies Google ID tokens against the tokeninfo endpoint.
type GoogleVerifier struct {
	client   *http.Client
	audience string
	endpoint string
}

// NewGoogleVerifier returns a verifier expecting tokens issued for the
// given OAuth client ID.
func NewGoogleVerifier(audience string) *GoogleVerifier {
	return &GoogleVerifier{
		client:   &http.Client{Timeout: identityVerifyWindow},
		audience: audience,
		endpoint: googleTokenInfoURL,
	}
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if idToken == "" {
		return nil, ErrIdentityRejected
	}

	verifyCtx, cancel := context.WithTimeout(ctx, identityVerifyWindow)
	defer cancel()

	endpoint := v.endpoint + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(verifyCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	// Google answers non-200 for invalid or expired tokens.
	if resp.StatusCode != http.StatusOK {
		return nil, ErrIdentityRejected
	}

	var claims struct {
		Sub      string `json:"sub"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Audience string `json:"aud"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("decode tokeninfo response: %w", err)
	}

	if claims.Sub == "" {
		return nil, ErrIdentityRejected
	}
	if v.audience != "" && claims.Audience != v.audience {
		return nil, ErrIdentityRejected
	}

	return &Identity{
		SubjectID: claims.Sub,
		Email:     claims.Email,
		Name:      claims.Name,
	}, nil
}
