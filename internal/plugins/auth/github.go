package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultGitHubAuthURL   = "https://github.com/login/oauth/authorize"
	defaultGitHubTokenURL  = "https://github.com/login/oauth/access_token"
	defaultGitHubUserURL   = "https://api.github.com/user"
	defaultGitHubEmailsURL = "https://api.github.com/user/emails"
)

// ErrNoVerifiedEmail is returned when a GitHub account exposes no usable
// email address at all.
var ErrNoVerifiedEmail = errors.New("no email found in GitHub profile")

// GitHubConfig holds the GitHub OAuth app settings. The endpoint URLs can
// be overridden in tests to point at a fake server.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL   string
	TokenURL  string
	UserURL   string
	EmailsURL string
}

// GitHubProvider performs the three-step GitHub OAuth flow: authorize
// redirect, code-for-token exchange, and profile retrieval.
type GitHubProvider struct {
	config GitHubConfig
	client *http.Client
}

// NewGitHubProvider creates a GitHubProvider with default endpoints for
// any URL left unset.
func NewGitHubProvider(config GitHubConfig) *GitHubProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGitHubAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGitHubTokenURL
	}
	if config.UserURL == "" {
		config.UserURL = defaultGitHubUserURL
	}
	if config.EmailsURL == "" {
		config.EmailsURL = defaultGitHubEmailsURL
	}
	return &GitHubProvider{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizeURL builds the GitHub authorization URL the browser is sent to.
// The user:email scope is required to read the account's email list.
func (p *GitHubProvider) AuthorizeURL() string {
	params := url.Values{
		"client_id":    {p.config.ClientID},
		"redirect_uri": {p.config.RedirectURL},
		"scope":        {"user:email"},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// githubTokenResponse is GitHub's access token endpoint response.
type githubTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// githubUser is the subset of GitHub's /user response we consume.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// githubEmail is one entry of GitHub's /user/emails response.
type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchProfile runs steps two and three of the flow: it exchanges the
// authorization code for an access token, then retrieves the account
// profile and its email list.
func (p *GitHubProvider) FetchProfile(ctx context.Context, code string) (*FederatedProfile, error) {
	token, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange token: %w", err)
	}

	user, err := p.fetchUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	email, err := p.resolveEmail(ctx, token)
	if err != nil {
		return nil, err
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Login
	}

	return &FederatedProfile{
		ExternalID:  strconv.FormatInt(user.ID, 10),
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   user.AvatarURL,
	}, nil
}

// exchangeToken trades the authorization code for an access token.
func (p *GitHubProvider) exchangeToken(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.config.RedirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// Without this GitHub answers with form-encoded bodies.
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp githubTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}

	// GitHub reports a bad or expired code as 200 with an error payload,
	// which surfaces here as a missing access_token.
	if tokenResp.AccessToken == "" {
		return "", errors.New("empty access token in response")
	}

	return tokenResp.AccessToken, nil
}

// fetchUser retrieves the authenticated account's profile.
func (p *GitHubProvider) fetchUser(ctx context.Context, accessToken string) (*githubUser, error) {
	body, err := p.apiGet(ctx, p.config.UserURL, accessToken)
	if err != nil {
		return nil, err
	}

	var user githubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("parsing user response: %w", err)
	}
	if user.ID == 0 {
		return nil, errors.New("empty id in user response")
	}
	return &user, nil
}

// resolveEmail picks the account's email: the primary verified entry from
// /user/emails, falling back to the first listed entry. An empty list
// means the account has no usable email.
func (p *GitHubProvider) resolveEmail(ctx context.Context, accessToken string) (string, error) {
	body, err := p.apiGet(ctx, p.config.EmailsURL, accessToken)
	if err != nil {
		return "", fmt.Errorf("fetch emails: %w", err)
	}

	var emails []githubEmail
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", fmt.Errorf("parsing emails response: %w", err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", ErrNoVerifiedEmail
}

// apiGet performs an authenticated GET against the GitHub API.
func (p *GitHubProvider) apiGet(ctx context.Context, endpoint, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request to %s failed with status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	return body, nil
}
