package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipcoin/miniapp/internal/api"
	"github.com/flipcoin/miniapp/internal/domain"
	"github.com/flipcoin/miniapp/internal/game"
	"github.com/flipcoin/miniapp/internal/guard"
	"github.com/flipcoin/miniapp/internal/infra"
	"github.com/flipcoin/miniapp/internal/profile"
	"github.com/flipcoin/miniapp/internal/service"
	"github.com/flipcoin/miniapp/internal/store"
)

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend mimics the remote mini-app API.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"opaque-token","user":{"id":7,"telegram_id":123456,"nickname":"alice","flip_tokens":100,"language":"ru","sound_enabled":true,"role":"user","version":1}}`)
	})
	mux.HandleFunc("POST /api/games/tarot-card", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer opaque-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"card":{"id":3,"name":"The Empress","meaning":"Abundance"},"tokens_earned":3,"current_balance":103,"plays_today":1,"max_plays":20,"version":2}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, backendURL string) (http.Handler, *profile.Manager) {
	t.Helper()
	ctx := context.Background()
	logger := noopLogger()

	mgr := profile.NewManager(ctx, store.NewProfileStore(store.NewMemoryKV(), logger), logger)
	t.Cleanup(func() { mgr.Close(ctx) })

	client := api.NewClient(backendURL+"/api", 2*time.Second, mgr, logger)
	limits := guard.NewLimitTracker()
	completed := guard.NewCompletedTasks()
	resolver := game.NewResolver(game.NewSeededSource(7, 7))

	r := NewRouter(RouterDeps{
		Profile:        mgr,
		Account:        service.NewAccountService(mgr, client, limits, completed, logger),
		Games:          service.NewGameService(mgr, client, resolver, limits, logger),
		Tasks:          service.NewTaskService(mgr, client, completed, logger),
		Shop:           service.NewShopService(mgr, client, logger),
		Logger:         logger,
		AllowedOrigins: []string{"*"},
	})
	return r, mgr
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type profileBody struct {
	Profile domain.UserProfile `json:"profile"`
	Session domain.Session     `json:"session"`
}

func decodeProfile(t *testing.T, w *httptest.ResponseRecorder) profileBody {
	t.Helper()
	var body profileBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestRouter_GuestToSignedInFlow(t *testing.T) {
	backend := fakeBackend(t)
	r, mgr := newTestRouter(t, backend.URL)

	w := doJSON(t, r, http.MethodGet, "/profile/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decodeProfile(t, w)
	assert.Equal(t, domain.GuestNickname, body.Profile.Nickname)
	assert.False(t, body.Session.Authenticated)

	// Guest play is resolved locally.
	w = doJSON(t, r, http.MethodPost, "/games/flip_coin/play", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), mgr.Current().FlipTokens)

	w = doJSON(t, r, http.MethodPost, "/auth/login", `{"id":"123456","first_name":"Alice","auth_date":1700000000,"hash":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeProfile(t, w)
	assert.True(t, body.Session.Authenticated)
	assert.Equal(t, "alice", body.Profile.Nickname)
	assert.Equal(t, "123456", body.Profile.TelegramID)
	assert.Equal(t, int64(100), body.Profile.FlipTokens)

	w = doJSON(t, r, http.MethodPost, "/games/tarot_card/play", "")
	require.Equal(t, http.StatusOK, w.Code)
	var play domain.PlayResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&play))
	assert.Equal(t, "The Empress", play.Outcome.Label)
	assert.Equal(t, int64(103), mgr.Current().FlipTokens)
	assert.Equal(t, int64(2), mgr.Current().Version)

	w = doJSON(t, r, http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mgr.Authenticated())
	assert.Equal(t, domain.DefaultProfile(), mgr.Current())
}

func TestRouter_Errors(t *testing.T) {
	backend := fakeBackend(t)
	r, _ := newTestRouter(t, backend.URL)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown game", http.MethodPost, "/games/dice/play", "", http.StatusBadRequest, domain.CodeValidation},
		{"magic ball without question", http.MethodPost, "/games/magic_ball/play", `{"question":"  "}`, http.StatusBadRequest, domain.CodeValidation},
		{"empty patch", http.MethodPatch, "/profile/", `{}`, http.StatusBadRequest, domain.CodeValidation},
		{"bad language", http.MethodPatch, "/profile/", `{"language":"de"}`, http.StatusBadRequest, domain.CodeValidation},
		{"overspend", http.MethodPost, "/profile/tokens", `{"delta":-5}`, http.StatusBadRequest, domain.CodeInsufficientBalance},
		{"malformed body", http.MethodPost, "/profile/tokens", `{`, http.StatusBadRequest, domain.CodeValidation},
		{"tasks need a session", http.MethodGet, "/tasks/", "", http.StatusUnauthorized, domain.CodeUnauthenticated},
		{"referral needs a session", http.MethodPost, "/referral", `{"code":"bob"}`, http.StatusUnauthorized, domain.CodeUnauthenticated},
		{"bad task id", http.MethodPost, "/tasks/abc/complete", "", http.StatusBadRequest, domain.CodeValidation},
		{"missing package", http.MethodPost, "/payments/", `{}`, http.StatusBadRequest, domain.CodeValidation},
		{"guest redeem insufficient", http.MethodPost, "/rewards/1/redeem", "", http.StatusBadRequest, domain.CodeInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestRouter_GuestCatalogs(t *testing.T) {
	r, _ := newTestRouter(t, "http://127.0.0.1:1")

	w := doJSON(t, r, http.MethodGet, "/rewards/", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rewards []domain.Reward
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rewards))
	assert.Len(t, rewards, len(domain.RewardCatalog))

	w = doJSON(t, r, http.MethodGet, "/games/limits", "")
	require.Equal(t, http.StatusOK, w.Code)
	var limits domain.Limits
	require.NoError(t, json.NewDecoder(w.Body).Decode(&limits))
	assert.Equal(t, domain.DefaultLimits(), limits)

	w = doJSON(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_EventStream(t *testing.T) {
	r, _ := newTestRouter(t, "http://127.0.0.1:1")
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan profile.Change, 4)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var c profile.Change
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &c) == nil {
				events <- c
			}
		}
		close(events)
	}()

	next := func() profile.Change {
		select {
		case c, ok := <-events:
			require.True(t, ok, "stream ended")
			return c
		case <-ctx.Done():
			t.Fatal("no event received")
			return profile.Change{}
		}
	}

	assert.Equal(t, "snapshot", next().Reason)

	post, err := http.Post(srv.URL+"/profile/tokens", "application/json", bytes.NewBufferString(`{"delta":9}`))
	require.NoError(t, err)
	post.Body.Close()

	c := next()
	assert.Equal(t, profile.ReasonTokens, c.Reason)
	assert.Equal(t, int64(9), c.Profile.FlipTokens)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	b, err := OpenStore(ctx, &infra.Config{StoreDriver: infra.StoreMemory}, noopLogger())
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryKV{}, b.KV)
	b.Close()

	path := t.TempDir() + "/profile.json"
	b, err = OpenStore(ctx, &infra.Config{StoreDriver: infra.StoreFile, StorePath: path}, noopLogger())
	require.NoError(t, err)
	require.NoError(t, b.KV.Set(ctx, "k", []byte(`"v"`), 0))
	b.Close()

	_, err = OpenStore(ctx, &infra.Config{StoreDriver: "sqlite"}, noopLogger())
	assert.Error(t, err)
}
