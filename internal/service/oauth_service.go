package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tempnote-be/internal/config"
	"tempnote-be/internal/dto"
	"tempnote-be/internal/entity"
	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/repository/memory"
	"tempnote-be/internal/repository/specification"
	"tempnote-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

type IOAuthService interface {
	Providers() []string
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider, code, state string) (*dto.LoginResponse, error)
}

type oauthProfile struct {
	ProviderUserId string
	Email          string
	Name           string
}

type oauthProvider struct {
	conf         *oauth2.Config
	fetchProfile func(ctx context.Context, client *http.Client) (*oauthProfile, error)
}

type oauthService struct {
	uowFactory  unitofwork.RepositoryFactory
	authService IAuthService
	states      *memory.OAuthStateRepository
	providers   map[string]*oauthProvider
	logger      logger.ILogger
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	authService IAuthService,
	states *memory.OAuthStateRepository,
	cfg config.OAuthConfig,
	log logger.ILogger,
) IOAuthService {
	redirect := func(name string) string {
		return fmt.Sprintf("%s/api/auth/oauth/%s/callback", cfg.RedirectBaseURL, name)
	}

	providers := make(map[string]*oauthProvider)
	if cfg.Github.ClientID != "" {
		providers["github"] = &oauthProvider{
			conf: &oauth2.Config{
				ClientID:     cfg.Github.ClientID,
				ClientSecret: cfg.Github.ClientSecret,
				RedirectURL:  redirect("github"),
				Scopes:       []string{"read:user", "user:email"},
				Endpoint:     github.Endpoint,
			},
			fetchProfile: fetchGithubProfile,
		}
	}
	if cfg.Google.ClientID != "" {
		providers["google"] = &oauthProvider{
			conf: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  redirect("google"),
				Scopes: []string{
					"https://www.googleapis.com/auth/userinfo.email",
					"https://www.googleapis.com/auth/userinfo.profile",
				},
				Endpoint: google.Endpoint,
			},
			fetchProfile: fetchGoogleProfile,
		}
	}

	return &oauthService{
		uowFactory:  uowFactory,
		authService: authService,
		states:      states,
		providers:   providers,
		logger:      log,
	}
}

func (s *oauthService) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, name := range []string{"github", "google"} {
		if _, ok := s.providers[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func (s *oauthService) provider(name string) (*oauthProvider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported provider %q", entity.ErrValidation, name)
	}
	return p, nil
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return "", err
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	s.states.Save(state, provider)

	return p.conf.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider, code, state string) (*dto.LoginResponse, error) {
	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	if bound, ok := s.states.Consume(state); !ok || bound != provider {
		return nil, fmt.Errorf("%w: unknown or expired oauth state", entity.ErrValidation)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", entity.ErrValidation)
	}

	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	profile, err := p.fetchProfile(ctx, p.conf.Client(ctx, token))
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: %s account has no usable email", entity.ErrValidation, provider)
	}

	user, err := s.findOrCreateUser(ctx, provider, profile)
	if err != nil {
		return nil, err
	}
	s.logger.Info("OAuthService", "User authenticated", map[string]interface{}{"provider": provider, "user_id": user.Id})
	return s.authService.IssueFor(user)
}

func (s *oauthService) findOrCreateUser(ctx context.Context, provider string, profile *oauthProfile) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	link, err := uow.UserRepository().FindProvider(ctx, provider, profile.ProviderUserId)
	if err != nil {
		return nil, err
	}
	if link != nil {
		user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: link.UserId})
		if err != nil || user != nil {
			return user, err
		}
	}

	email := normalizeEmail(profile.Email)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if user == nil {
		name := profile.Name
		if name == "" {
			name = email
		}
		user = &entity.User{
			Id:        uuid.New(),
			Email:     email,
			FullName:  name,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, err
		}
	}

	if err := uow.UserRepository().CreateProvider(ctx, &entity.UserProvider{
		Id:             uuid.New(),
		UserId:         user.Id,
		ProviderName:   provider,
		ProviderUserId: profile.ProviderUserId,
		CreatedAt:      time.Now(),
	}); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed getting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed getting %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fetchGoogleProfile(ctx context.Context, client *http.Client) (*oauthProfile, error) {
	var googleUser struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := getJSON(ctx, client, "https://www.googleapis.com/oauth2/v2/userinfo", &googleUser); err != nil {
		return nil, err
	}
	return &oauthProfile{ProviderUserId: googleUser.ID, Email: googleUser.Email, Name: googleUser.Name}, nil
}

func fetchGithubProfile(ctx context.Context, client *http.Client) (*oauthProfile, error) {
	var githubUser struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, client, "https://api.github.com/user", &githubUser); err != nil {
		return nil, err
	}

	profile := &oauthProfile{
		ProviderUserId: strconv.FormatInt(githubUser.ID, 10),
		Email:          githubUser.Email,
		Name:           githubUser.Name,
	}
	if profile.Name == "" {
		profile.Name = githubUser.Login
	}
	if profile.Email != "" {
		return profile, nil
	}

	// Private emails are only listed on the emails endpoint.
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, "https://api.github.com/user/emails", &emails); err != nil {
		return nil, err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			profile.Email = e.Email
			break
		}
	}
	return profile, nil
}
