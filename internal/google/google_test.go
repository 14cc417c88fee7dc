package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"
)

type fakeGoogle struct {
	srv         *httptest.Server
	omitRefresh atomic.Bool
	failSend    atomic.Bool
	tokenCalls  atomic.Int32
	sent        atomic.Value
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "authorization_code":
			if r.Form.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			resp := map[string]any{"access_token": "at-1", "token_type": "Bearer", "expires_in": 3600}
			if !f.omitRefresh.Load() {
				resp["refresh_token"] = "rt-123"
			}
			_ = json.NewEncoder(w).Encode(resp)
		case "refresh_token":
			if r.Form.Get("refresh_token") != "rt-123" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at-2", "token_type": "Bearer", "expires_in": 3600})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.failSend.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
			return
		}
		var body struct {
			Raw string `json:"raw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.sent.Store(body.Raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-789","threadId":"thr-1"}`))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGoogle) config() Config {
	return Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:3000/oauth2callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.srv.URL + "/auth",
			TokenURL:  f.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		APIEndpoint: f.srv.URL + "/",
	}
}

func TestAuthCodeURL(t *testing.T) {
	p := NewProvider(Config{ClientID: "cid", RedirectURL: "http://localhost/cb"})
	u, err := url.Parse(p.AuthCodeURL("c@x.com"))
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if !strings.HasPrefix(u.String(), "https://accounts.google.com/") {
		t.Fatalf("unexpected auth host: %s", u)
	}
	q := u.Query()
	checks := map[string]string{
		"scope":         "https://www.googleapis.com/auth/gmail.send",
		"access_type":   "offline",
		"prompt":        "consent",
		"state":         "c@x.com",
		"client_id":     "cid",
		"redirect_uri":  "http://localhost/cb",
		"response_type": "code",
	}
	for k, want := range checks {
		if got := q.Get(k); got != want {
			t.Fatalf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestExchange(t *testing.T) {
	f := newFakeGoogle(t)
	p := NewProvider(f.config())

	g, err := p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if g.RefreshToken != "rt-123" {
		t.Fatalf("unexpected refresh token %q", g.RefreshToken)
	}

	if _, err := p.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatal("expected exchange error")
	}

	f.omitRefresh.Store(true)
	g, err = p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange without refresh token: %v", err)
	}
	if g.RefreshToken != "" {
		t.Fatalf("expected empty refresh token, got %q", g.RefreshToken)
	}
}

func TestMailerSend(t *testing.T) {
	f := newFakeGoogle(t)
	m := NewMailer(f.config())

	id, err := m.Send(context.Background(), "rt-123", "VG86IGFAYi5jb20")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "msg-789" {
		t.Fatalf("unexpected id %q", id)
	}
	if got, _ := f.sent.Load().(string); got != "VG86IGFAYi5jb20" {
		t.Fatalf("unexpected raw payload %q", got)
	}

	if _, err := m.Send(context.Background(), "rt-123", "again"); err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if n := f.tokenCalls.Load(); n != 2 {
		t.Fatalf("expected a fresh refresh per send, got %d token calls", n)
	}
}

func TestMailerSendFailures(t *testing.T) {
	f := newFakeGoogle(t)
	m := NewMailer(f.config())

	if _, err := m.Send(context.Background(), "", "raw"); err == nil {
		t.Fatal("expected error for empty refresh token")
	}
	if _, err := m.Send(context.Background(), "revoked", "raw"); err == nil {
		t.Fatal("expected error for rejected refresh token")
	}
	f.failSend.Store(true)
	if _, err := m.Send(context.Background(), "rt-123", "raw"); err == nil {
		t.Fatal("expected error when gmail rejects the send")
	}
}
