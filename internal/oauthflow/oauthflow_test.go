package oauthflow

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"tradedesk.app/internal/auth"
	"tradedesk.app/internal/registry"
	"tradedesk.app/internal/vault"
)

type fakeProvider struct {
	grant   Grant
	err     error
	codes   []string
	baseURL string
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("scope", "https://www.googleapis.com/auth/gmail.send")
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("state", state)
	return p.baseURL + "?" + q.Encode()
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (Grant, error) {
	p.codes = append(p.codes, code)
	return p.grant, p.err
}

type fixture struct {
	coord    *Coordinator
	provider *fakeProvider
	clients  *registry.Memory
	cipher   *vault.Cipher
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cipher, err := vault.NewCipher("encryption-secret")
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	core, logs := observer.New(zap.DebugLevel)
	f := &fixture{
		provider: &fakeProvider{baseURL: "https://auth.example/o"},
		clients:  registry.NewMemory(),
		cipher:   cipher,
		logs:     logs,
	}
	f.coord = NewCoordinator(f.provider, f.clients, cipher, zap.New(core))
	return f
}

var advisor = auth.Identity{AdvisorID: "adv-1", Email: "advisor@firm.com"}

func TestGenerateLinkThenCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.coord.GenerateAuthLink(ctx, advisor, LinkRequest{Name: "Jane", ClientEmail: "c@x.com", BrokerEmail: "broker@y.com"})
	if err != nil {
		t.Fatalf("GenerateAuthLink: %v", err)
	}
	u, _ := url.Parse(link)
	if u.Query().Get("state") != "c@x.com" || u.Query().Get("prompt") != "consent" {
		t.Fatalf("unexpected link: %s", link)
	}
	if _, err := f.clients.LookupActive(ctx, "c@x.com"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("client must not be dispatchable before callback, got %v", err)
	}

	f.provider.grant = Grant{RefreshToken: "refresh-abc"}
	outcome, err := f.coord.HandleCallback(ctx, "code-1", "c@x.com")
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome != OutcomeLinked {
		t.Fatalf("unexpected outcome %q", outcome)
	}

	client, err := f.clients.LookupActive(ctx, "c@x.com")
	if err != nil {
		t.Fatalf("LookupActive: %v", err)
	}
	if client.BrokerEmail != "broker@y.com" {
		t.Fatalf("unexpected broker %q", client.BrokerEmail)
	}
	if strings.Contains(client.EncryptedCredential, "refresh-abc") {
		t.Fatal("credential stored in clear")
	}
	plain, err := f.cipher.Decrypt(client.EncryptedCredential)
	if err != nil || plain != "refresh-abc" {
		t.Fatalf("Decrypt = %q, %v", plain, err)
	}

	if n := f.logs.FilterField(zap.String("event", "oauth.link.issued")).Len(); n != 1 {
		t.Fatalf("expected one link audit event, got %d", n)
	}
}

func TestGenerateLinkValidation(t *testing.T) {
	f := newFixture(t)
	for _, req := range []LinkRequest{
		{Name: "", ClientEmail: "c@x.com", BrokerEmail: "b@y.com"},
		{Name: "Jane", ClientEmail: "", BrokerEmail: "b@y.com"},
		{Name: "Jane", ClientEmail: "c@x.com", BrokerEmail: "not-an-email"},
	} {
		if _, err := f.coord.GenerateAuthLink(context.Background(), advisor, req); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("GenerateAuthLink(%+v): expected ErrInvalidInput, got %v", req, err)
		}
	}
}

func TestCallbackMissingParams(t *testing.T) {
	f := newFixture(t)
	for _, tc := range []struct{ code, state string }{{"", "c@x.com"}, {"code", ""}, {" ", " "}} {
		if _, err := f.coord.HandleCallback(context.Background(), tc.code, tc.state); !errors.Is(err, ErrCallback) {
			t.Fatalf("HandleCallback(%q,%q): expected ErrCallback, got %v", tc.code, tc.state, err)
		}
	}
	if len(f.provider.codes) != 0 {
		t.Fatal("provider must not be called without a code")
	}
}

func TestCallbackExchangeFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.err = errors.New("oauth2: invalid_grant secret-detail")
	_, err := f.coord.HandleCallback(context.Background(), "code", "c@x.com")
	if !errors.Is(err, ErrExchange) {
		t.Fatalf("expected ErrExchange, got %v", err)
	}
	if f.logs.FilterMessage("oauth code exchange failed").Len() != 1 {
		t.Fatal("expected exchange failure to be logged")
	}
}

func TestCallbackWithoutRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.clients.Register(ctx, "Jane", "c@x.com", "b@y.com")

	outcome, err := f.coord.HandleCallback(ctx, "code", "c@x.com")
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome != OutcomeNoRefreshToken {
		t.Fatalf("unexpected outcome %q", outcome)
	}
	if _, err := f.clients.LookupActive(ctx, "c@x.com"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("nothing should be stored, got %v", err)
	}
}

func TestCallbackUnknownClient(t *testing.T) {
	f := newFixture(t)
	f.provider.grant = Grant{RefreshToken: "refresh"}
	outcome, err := f.coord.HandleCallback(context.Background(), "code", "ghost@x.com")
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome != OutcomeUnknownClient {
		t.Fatalf("unexpected outcome %q", outcome)
	}
}
