package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mswierczewski/socialwall/internal/app"
	"github.com/mswierczewski/socialwall/internal/http/handler"
	"github.com/mswierczewski/socialwall/internal/http/router"
	"github.com/mswierczewski/socialwall/internal/repository"
	"github.com/mswierczewski/socialwall/internal/security"
	"github.com/mswierczewski/socialwall/internal/service"
	"github.com/mswierczewski/socialwall/internal/storage"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testStack struct {
	server   *httptest.Server
	client   *http.Client
	sessions *service.SessionService
	mails    chan string // activation URLs
}

type capturingMail struct{ urls chan string }

func (m *capturingMail) SendVerificationMail(_ context.Context, _, _, activationURL string) error {
	m.urls <- activationURL
	return nil
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := app.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	files, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	verifications := repository.NewVerificationTokenRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	votes := repository.NewVoteRepository(db)

	codec := security.NewTokenCodec(strings.Repeat("k", 32))
	sessions := service.NewSessionService(tokens, users, codec, 24*time.Hour)
	mail := &capturingMail{urls: make(chan string, 8)}
	auth := service.NewAuthService(users, verifications, sessions, mail, log, "http://test", 24*time.Hour)
	userSvc := service.NewUserService(users, files, log)
	postSvc := service.NewPostService(posts, comments, votes, files, log)

	h := router.NewRouter(router.Dependencies{
		AuthHandler: handler.NewAuthHandler(auth, userSvc),
		UserHandler: handler.NewUserHandler(userSvc),
		PostHandler: handler.NewPostHandler(postSvc),
		Sessions:    sessions,
		Logger:      log,
		Readiness: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return &testStack{
		server:   server,
		client:   server.Client(),
		sessions: sessions,
		mails:    mail.urls,
	}
}

// doJSON sends a JSON request. headers may carry Authorization and a custom
// User-Agent; the user agent defaults to "itest" so fingerprints stay stable
// across calls.
func (s *testStack) doJSON(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "itest")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		t.Fatalf("decode envelope for %s %s: %v", method, path, err)
	}
	return resp, env
}

func (s *testStack) waitForActivationURL(t *testing.T) string {
	t.Helper()
	select {
	case url := <-s.mails:
		return url
	case <-time.After(2 * time.Second):
		t.Fatal("no verification mail arrived")
		return ""
	}
}

// signUpAndActivate registers and activates an account, returning nothing;
// callers sign in themselves to obtain a token for the fingerprint they want.
func (s *testStack) signUpAndActivate(t *testing.T, username, password string) {
	t.Helper()

	resp, env := s.doJSON(t, http.MethodPost, "/api/auth/signUp", map[string]string{
		"username":   username,
		"password":   password,
		"email":      username + "@example.com",
		"first_name": username,
		"last_name":  "Test",
	}, nil)
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("sign up %s: status=%d success=%v", username, resp.StatusCode, env.Success)
	}

	activationURL := s.waitForActivationURL(t)
	token := activationURL[strings.LastIndexByte(activationURL, '/')+1:]
	resp, env = s.doJSON(t, http.MethodGet, "/api/auth/activateAccount/"+token, nil, nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("activate %s: status=%d success=%v", username, resp.StatusCode, env.Success)
	}
}

func (s *testStack) signIn(t *testing.T, username, password string) string {
	t.Helper()

	resp, env := s.doJSON(t, http.MethodPost, "/api/auth/signIn", map[string]string{
		"login":    username,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("sign in %s: status=%d success=%v", username, resp.StatusCode, env.Success)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode sign in data: %v", err)
	}
	if data.Token == "" {
		t.Fatal("sign in returned no token")
	}
	if got := resp.Header.Get("Authorization"); got != "Bearer "+data.Token {
		t.Fatalf("Authorization header %q does not match body token", got)
	}
	return data.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
