package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/benvon/smart-auth/internal/apperrors"
	"github.com/benvon/smart-auth/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubAPIBaseURL is the REST API root used for the user lookup
const GitHubAPIBaseURL = "https://api.github.com"

// githubUser is the subset of GET /user this service reads
type githubUser struct {
	ID        int64   `json:"id"`
	Login     string  `json:"login"`
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	AvatarURL string  `json:"avatar_url"`
}

// GitHubExchanger trades a GitHub authorization code for the user's identity
type GitHubExchanger struct {
	config     *oauth2.Config
	apiBaseURL string
}

// NewGitHubExchanger creates an exchanger for the given OAuth app credentials
func NewGitHubExchanger(clientID, clientSecret string) *GitHubExchanger {
	return &GitHubExchanger{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBaseURL: GitHubAPIBaseURL,
	}
}

// WithEndpoints replaces the OAuth token endpoint and API root
func (e *GitHubExchanger) WithEndpoints(endpoint oauth2.Endpoint, apiBaseURL string) *GitHubExchanger {
	e.config.Endpoint = endpoint
	e.apiBaseURL = strings.TrimSuffix(apiBaseURL, "/")
	return e
}

// AuthCodeURL returns the GitHub consent URL for state
func (e *GitHubExchanger) AuthCodeURL(state string) string {
	return e.config.AuthCodeURL(state)
}

// Exchange performs the code-for-token exchange and the user lookup
func (e *GitHubExchanger) Exchange(ctx context.Context, code string) (*models.ExternalIdentity, error) {
	if code == "" {
		return nil, apperrors.New(apperrors.CodeInvalidProviderToken, "missing GitHub code")
	}

	token, err := e.config.Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidProviderToken, "GitHub code exchange failed", err)
	}

	user, err := e.fetchUser(ctx, e.config.Client(ctx, token))
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidProviderToken, "GitHub user has no id")
	}

	email, synthesized := "", false
	if user.Email != nil {
		email = *user.Email
	}
	if email == "" {
		if user.Login == "" {
			return nil, apperrors.New(apperrors.CodeInvalidProviderToken, "GitHub user has no email or login")
		}
		// Placeholder address for accounts with a private email.
		email, synthesized = user.Login+"@github.com", true
	}

	name := user.Login
	if user.Name != nil && *user.Name != "" {
		name = *user.Name
	}

	return &models.ExternalIdentity{
		Email:     email,
		Name:      name,
		SubjectID: strconv.FormatInt(user.ID, 10),
		Avatar:    user.AvatarURL,
		Provider:  models.ProviderGitHub,

		EmailSynthesized: synthesized,
	}, nil
}

func (e *GitHubExchanger) fetchUser(ctx context.Context, client *http.Client) (*githubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch GitHub user: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.CodeInvalidProviderToken, "GitHub user lookup failed",
			fmt.Errorf("GitHub API returned status %d", resp.StatusCode))
	}

	var user githubUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode GitHub user: %w", err)
	}
	return &user, nil
}
