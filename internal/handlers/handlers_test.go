package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskmates.dev/internal/config"
	"deskmates.dev/internal/models"
	"deskmates.dev/internal/scene"
	"deskmates.dev/internal/services"
	"deskmates.dev/internal/session"
	"deskmates.dev/internal/store"
)

const tokenJSON = `{
	"access_token": "at-1",
	"refresh_token": "rt-1",
	"token_type": "bearer",
	"expires_in": 3600,
	"user": {"id": "u-1", "email": "a@example.com"}
}`

type testApp struct {
	router http.Handler
	users  *store.UserStore
	scene  *services.SceneService

	chatStatus int
	chatBody   string
}

// newTestApp wires the real router to fake chat and auth providers
func newTestApp(t *testing.T, withAuth bool) *testApp {
	t.Helper()
	app := &testApp{chatStatus: http.StatusOK, chatBody: `{"choices":[{"message":{"content":"hi back"}}]}`}

	chatSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(app.chatStatus)
		_, _ = w.Write([]byte(app.chatBody))
	}))
	t.Cleanup(chatSrv.Close)

	authMux := http.NewServeMux()
	authMux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Query().Get("grant_type") {
		case "password":
			if body["password"] != "hunter22" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
		case "pkce":
			if body["auth_code"] != "good-code" || body["code_verifier"] == "" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
		}
		_, _ = w.Write([]byte(tokenJSON))
	})
	authMux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u-1","email":"a@example.com"}`))
	})
	authMux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	authSrv := httptest.NewServer(authMux)
	t.Cleanup(authSrv.Close)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<canvas></canvas>"), 0o644))
	assets := filepath.Join(dir, "assets")
	require.NoError(t, os.MkdirAll(filepath.Join(assets, "backgrounds"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "backgrounds", "office.png"), []byte("png"), 0o644))

	cfg := config.Default()
	cfg.Server.StaticDir = dir
	cfg.Scene.AssetDir = assets
	cfg.Chat.BaseURL = chatSrv.URL
	cfg.Auth.URL = authSrv.URL
	cfg.Auth.AnonKey = "anon"

	logger, _ := test.NewNullLogger()

	sc, err := scene.New(scene.DefaultLayout(), scene.DefaultManifest(4, []string{"down", "up"}), scene.WithRandom(scene.NewRNG(1)))
	require.NoError(t, err)
	app.scene = services.NewSceneService(sc, cfg.Scene.TickRate, AssetBase, logger)

	app.users, err = store.OpenSQLite(filepath.Join(dir, "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.users.Close() })

	deps := Deps{
		Scene:    app.scene,
		Chat:     services.NewChatService(cfg.Chat, chatSrv.Client(), logger),
		Sessions: session.NewCodec("0123456789abcdef", session.Options{Name: "sid", MaxAge: time.Hour}),
		Log:      logger,
	}
	if withAuth {
		deps.Auth = services.NewAuthService(cfg.Auth, authSrv.Client(), logger)
		deps.Users = services.NewUserService(app.users, logger)
	}
	app.router = SetupRoutes(cfg, deps)
	return app
}

func (a *testApp) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) signIn(t *testing.T) []*http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/signin", models.Credentials{Email: "a@example.com", Password: "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, true)
	rec := app.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestScene(t *testing.T) {
	app := newTestApp(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/scene", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	rec = app.do(t, http.MethodGet, "/api/scene", nil)
	var info models.SceneInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 60, info.TickRate)
	assert.Equal(t, 1024.0, info.Layout.Width)
	assert.Len(t, info.Manifest.Characters, 4)

	app.scene.Step()
	app.scene.Step()
	rec = app.do(t, http.MethodGet, "/api/scene/frame", nil)
	var f scene.Frame
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, uint64(1), f.Tick)
	assert.Len(t, f.Agents, 4)
	assert.Len(t, f.Occupancy["down"], 3)
}

func TestSceneStream(t *testing.T) {
	app := newTestApp(t, false)
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/scene/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() scene.Frame {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var env struct {
			Type  string      `json:"type"`
			Frame scene.Frame `json:"frame"`
		}
		require.NoError(t, conn.ReadJSON(&env))
		assert.Equal(t, "frame", env.Type)
		return env.Frame
	}

	assert.Equal(t, uint64(0), read().Tick)

	require.Eventually(t, func() bool { return app.scene.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)
	app.scene.Step()
	app.scene.Step()
	read()
	assert.Equal(t, uint64(1), read().Tick)
}

func TestChat(t *testing.T) {
	app := newTestApp(t, true)

	rec := app.do(t, http.MethodPost, "/api/chat", models.ChatRequest{Message: "hello"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookies := app.signIn(t)

	rec = app.do(t, http.MethodPost, "/api/chat", models.ChatRequest{Message: "hello"}, cookies...)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"hi back"}`, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/chat", models.ChatRequest{Message: "  "}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	app.chatStatus, app.chatBody = http.StatusServiceUnavailable, `{}`
	rec = app.do(t, http.MethodPost, "/api/chat", models.ChatRequest{Message: "hello"}, cookies...)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to get response from AI"}`, rec.Body.String())

	app.chatStatus, app.chatBody = http.StatusOK, `{"choices":[]}`
	rec = app.do(t, http.MethodPost, "/api/chat", models.ChatRequest{Message: "hello"}, cookies...)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid response format from AI"}`, rec.Body.String())
}

func TestRequestBodyLimit(t *testing.T) {
	app := newTestApp(t, true)
	cookies := app.signIn(t)
	huge := strings.Repeat("x", maxBodyBytes+1)

	rec := app.do(t, http.MethodPost, "/api/chat", models.ChatRequest{Message: huge}, cookies...)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"Request body too large"}`, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/auth/signin", models.Credentials{Email: "a@example.com", Password: huge})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/auth/signin", models.Credentials{Email: "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Email and password are required"}`, rec.Body.String())
}

func TestSignInAndOut(t *testing.T) {
	app := newTestApp(t, true)

	rec := app.do(t, http.MethodPost, "/api/auth/signin", models.Credentials{Email: "a@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/auth/signin", models.Credentials{Email: "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cookies := app.signIn(t)
	u, err := app.users.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)

	rec = app.do(t, http.MethodGet, "/api/auth/session", nil, cookies...)
	assert.JSONEq(t, `{"logged_in":true,"user":{"id":"u-1","email":"a@example.com"}}`, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/auth/signout", nil, cookies...)
	assert.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	rec = app.do(t, http.MethodGet, "/api/auth/session", nil)
	assert.JSONEq(t, `{"logged_in":false}`, rec.Body.String())
}

func TestOAuthRoundTrip(t *testing.T) {
	app := newTestApp(t, true)

	rec := app.do(t, http.MethodGet, "/api/auth/oauth/google", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/authorize", loc.Path)
	assert.Equal(t, "google", loc.Query().Get("provider"))
	assert.Equal(t, "http://example.com/auth/callback", loc.Query().Get("redirect_to"))
	assert.NotEmpty(t, loc.Query().Get("code_challenge"))
	pkce := rec.Result().Cookies()
	require.Len(t, pkce, 1)

	rec = app.do(t, http.MethodGet, "/auth/callback?code=good-code", nil, pkce...)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var sid *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sid" {
			sid = ck
		}
	}
	require.NotNil(t, sid)
	_, err = app.users.Get(context.Background(), "u-1")
	assert.NoError(t, err)

	rec = app.do(t, http.MethodGet, "/api/auth/session", nil, sid)
	assert.Contains(t, rec.Body.String(), `"logged_in":true`)
}

func TestOAuthCallbackFailures(t *testing.T) {
	app := newTestApp(t, true)

	for _, tc := range []struct {
		name    string
		path    string
		cookies bool
	}{
		{"no code", "/auth/callback", true},
		{"provider error", "/auth/callback?error=access_denied", true},
		{"bad code", "/auth/callback?code=bad-code", true},
		{"no verifier", "/auth/callback?code=good-code", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tc.cookies {
				cookies = app.do(t, http.MethodGet, "/api/auth/oauth/google", nil).Result().Cookies()
			}
			rec := app.do(t, http.MethodGet, tc.path, nil, cookies...)
			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			assert.Equal(t, "/auth-error", rec.Header().Get("Location"))
		})
	}
}

func TestAuthDisabled(t *testing.T) {
	app := newTestApp(t, false)

	rec := app.do(t, http.MethodPost, "/api/auth/signin", models.Credentials{Email: "a@example.com", Password: "hunter22"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/chat", models.ChatRequest{Message: "hello"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIndex(t *testing.T) {
	app := newTestApp(t, false)
	rec := app.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<canvas>")
}

func TestAssets(t *testing.T) {
	app := newTestApp(t, false)
	rec := app.do(t, http.MethodGet, "/assets/backgrounds/office.png", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())

	rec = app.do(t, http.MethodGet, "/assets/backgrounds/missing.png", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBundledClient(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sc, err := scene.New(scene.DefaultLayout(), nil, scene.WithRandom(scene.NewRNG(1)))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Server.StaticDir = filepath.Join("..", "..", "static")
	router := SetupRoutes(cfg, Deps{
		Scene:    services.NewSceneService(sc, cfg.Scene.TickRate, AssetBase, logger),
		Chat:     services.NewChatService(cfg.Chat, nil, logger),
		Sessions: session.NewCodec("0123456789abcdef", session.Options{}),
		Log:      logger,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	// a failed send keeps the typed message and a 401 brings back the sign-in form
	assert.Contains(t, body, "input.value = message;")
	assert.Contains(t, body, "status === 401")
	assert.Contains(t, body, "promptSignIn();")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth-error", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign-in failed")
}
