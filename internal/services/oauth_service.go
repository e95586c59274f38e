package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/blogium/blogium-api/internal/config"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

// OAuthProvider describes one identity provider. ProfileURL returns the
// signed-in user; EmailsURL is consulted when the profile has no email.
type OAuthProvider struct {
	Name       string
	Config     *oauth2.Config
	ProfileURL string
	EmailsURL  string
}

// ExternalProfile is the provider-agnostic identity used for the upsert.
type ExternalProfile struct {
	Email string
	Name  string
	Image string
}

// DefaultProviders returns the configured Google and GitHub providers.
// Providers without a client id are left out.
func DefaultProviders(cfg *config.Config) map[string]*OAuthProvider {
	providers := map[string]*OAuthProvider{}
	if cfg.GoogleClientID != "" {
		providers["google"] = &OAuthProvider{
			Name: "google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				RedirectURL:  cfg.OAuthRedirectBase + "/google/callback",
				Scopes:       []string{"openid", "email", "profile"},
			},
			ProfileURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		}
	}
	if cfg.GitHubClientID != "" {
		providers["github"] = &OAuthProvider{
			Name: "github",
			Config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				Endpoint:     github.Endpoint,
				RedirectURL:  cfg.OAuthRedirectBase + "/github/callback",
				Scopes:       []string{"read:user", "user:email"},
			},
			ProfileURL: "https://api.github.com/user",
			EmailsURL:  "https://api.github.com/user/emails",
		}
	}
	return providers
}

type OAuthService struct {
	auth       *AuthService
	providers  map[string]*OAuthProvider
	httpClient *http.Client
}

func NewOAuthService(auth *AuthService, providers map[string]*OAuthProvider, httpClient *http.Client) *OAuthService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuthService{auth: auth, providers: providers, httpClient: httpClient}
}

// NewState returns an unguessable value for the OAuth state parameter.
func NewState() string {
	return uuid.NewString()
}

func (s *OAuthService) AuthCodeURL(provider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Complete exchanges the authorization code, fetches the profile, upserts
// the user and returns a Blogium token.
func (s *OAuthService) Complete(ctx context.Context, provider, code string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %s code exchange: %v", ErrUpstream, provider, err)
	}

	client := p.Config.Client(ctx, tok)
	profile, err := s.fetchProfile(ctx, client, p)
	if err != nil {
		return "", fmt.Errorf("%w: %s profile: %v", ErrUpstream, provider, err)
	}

	user, err := s.auth.FindOrCreateExternalUser(ctx, profile.Email, profile.Name, profile.Image)
	if err != nil {
		return "", err
	}
	return s.auth.IssueToken(user)
}

func (s *OAuthService) fetchProfile(ctx context.Context, client *http.Client, p *OAuthProvider) (*ExternalProfile, error) {
	var raw struct {
		Email     string `json:"email"`
		Name      string `json:"name"`
		Login     string `json:"login"`
		Picture   string `json:"picture"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, p.ProfileURL, &raw); err != nil {
		return nil, err
	}

	profile := &ExternalProfile{Email: raw.Email, Name: raw.Name, Image: raw.Picture}
	if p.Name == "github" {
		profile.Name = raw.Login
		profile.Image = raw.AvatarURL
	}
	if profile.Email == "" && p.EmailsURL != "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, p.EmailsURL, &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				profile.Email = e.Email
				break
			}
		}
	}
	if profile.Email == "" {
		return nil, errors.New("no verified email on account")
	}
	return profile, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
