// Package google adapts Google OAuth2 and the Gmail API to the authorization
// flow and dispatch pipeline.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"tradedesk.app/internal/oauthflow"
)

// SendScope is the only capability requested from the client.
const SendScope = gmail.GmailSendScope

// Config describes the OAuth client registered with Google.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint defaults to Google's OAuth2 endpoint.
	Endpoint oauth2.Endpoint
	// APIEndpoint overrides the Gmail API base URL.
	APIEndpoint string
}

func (c Config) oauth() *oauth2.Config {
	ep := c.Endpoint
	if ep.AuthURL == "" && ep.TokenURL == "" {
		ep = googleoauth.Endpoint
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Endpoint:     ep,
		Scopes:       []string{SendScope},
	}
}

// Provider issues consent URLs and exchanges authorization codes.
type Provider struct {
	cfg *oauth2.Config
}

var _ oauthflow.Provider = (*Provider)(nil)

func NewProvider(c Config) *Provider {
	return &Provider{cfg: c.oauth()}
}

// AuthCodeURL requests offline access and forces the consent screen so a
// refresh token is issued on every authorization.
func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (p *Provider) Exchange(ctx context.Context, code string) (oauthflow.Grant, error) {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return oauthflow.Grant{}, fmt.Errorf("exchange code: %w", err)
	}
	return oauthflow.Grant{RefreshToken: tok.RefreshToken}, nil
}

// Mailer sends raw messages as the client the refresh token belongs to.
type Mailer struct {
	cfg      *oauth2.Config
	endpoint string
}

func NewMailer(c Config) *Mailer {
	return &Mailer{cfg: c.oauth(), endpoint: c.APIEndpoint}
}

// Send builds a token source from refreshToken for this call only and posts raw
// to users/me/messages/send. It returns the provider message id.
func (m *Mailer) Send(ctx context.Context, refreshToken, raw string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", errors.New("refresh token is empty")
	}
	ts := m.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if m.endpoint != "" {
		opts = append(opts, option.WithEndpoint(m.endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("gmail service: %w", err)
	}
	msg, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail send: %w", err)
	}
	if msg.Id == "" {
		return "", errors.New("gmail send: empty message id")
	}
	return msg.Id, nil
}
