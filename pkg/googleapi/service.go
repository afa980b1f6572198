package googleapi

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/cs-flytbase/support-sync/pkg/apiclient"
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

// Service builds per-user Gmail and Calendar providers from stored
// OAuth tokens. Refreshed tokens are pushed back through the callback
// so the integration row stays current.
type Service struct {
	clientID     string
	clientSecret string
	api          *apiclient.Client
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback syncdomain.TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[GoogleAPI] failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string, api *apiclient.Client) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		api:          api,
	}
}

func (s *Service) baseToken(accessToken, refreshToken string) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	// Force an immediate refresh when we can, so a stale access token
	// never burns the first sync call.
	if refreshToken != "" {
		token.Expiry = time.Now()
	}
	return token
}

func (s *Service) tokenSource(ctx context.Context, token *oauth2.Token, onRefresh syncdomain.TokenUpdateFunc) oauth2.TokenSource {
	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}
	return &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onRefresh,
	}
}

// Gmail returns a rate-limited Gmail provider bound to one user's
// credentials.
func (s *Service) Gmail(ctx context.Context, userID, accessToken, refreshToken string, onRefresh syncdomain.TokenUpdateFunc) (syncdomain.GmailProvider, error) {
	token := s.baseToken(accessToken, refreshToken)
	client := oauth2.NewClient(ctx, s.tokenSource(ctx, token, onRefresh))
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &gmailProvider{srv: srv, api: s.api, userID: userID}, nil
}

// Calendar returns a rate-limited Calendar provider bound to one
// user's credentials.
func (s *Service) Calendar(ctx context.Context, userID, accessToken, refreshToken string, onRefresh syncdomain.TokenUpdateFunc) (syncdomain.CalendarProvider, error) {
	token := s.baseToken(accessToken, refreshToken)
	client := oauth2.NewClient(ctx, s.tokenSource(ctx, token, onRefresh))
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}
	return &calendarProvider{srv: srv, api: s.api, userID: userID}, nil
}
