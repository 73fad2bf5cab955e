package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"multiview/internal/core/domain"
	"multiview/internal/core/services"
	"multiview/internal/infrastructure/monitoring"
	"multiview/internal/infrastructure/repositories/memory"
	"multiview/internal/infrastructure/twitch"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTwitch serves canned OAuth and Helix answers and counts every hit.
type fakeTwitch struct {
	hits       atomic.Int32
	games      string
	streams    string
	streamCode int
}

func (f *fakeTwitch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	switch r.URL.Path {
	case "/oauth2/token":
		fmt.Fprint(w, `{"access_token":"app-token","expires_in":3600,"token_type":"bearer"}`)
	case "/helix/games":
		fmt.Fprint(w, f.games)
	case "/helix/streams":
		if f.streamCode != 0 {
			w.WriteHeader(f.streamCode)
			return
		}
		fmt.Fprint(w, f.streams)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type envelope struct {
	Success    bool                  `json:"success"`
	Error      string                `json:"error"`
	Message    string                `json:"message"`
	Configured *bool                 `json:"configured"`
	Data       []domain.StreamRecord `json:"data"`
}

func newTestRouter(t *testing.T, upstream *fakeTwitch, creds domain.Credentials) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	log := zap.NewNop().Sugar()
	collector := monitoring.NewPrometheusCollector(prometheus.NewRegistry())
	client := twitch.NewClientWithHTTP(twitch.Config{
		ClientID: creds.ClientID,
		AuthURL:  srv.URL + "/oauth2/token",
		APIURL:   srv.URL + "/helix",
	}, srv.Client(), collector, log)

	session := memory.NewMemorySessionRepository()
	credentials := services.NewCredentialService(client, session, creds, collector, log, false)
	categories := services.NewCategoryService("Stream for Humanity", credentials, client, session, collector, log, false)
	streams := services.NewStreamService(credentials, categories, client, session, collector, log, 100)

	router := gin.New()
	SetupRoutes(router,
		NewHealthHandler(credentials, domain.ViewerSettings{MaxStreams: 4, Layouts: []int{1, 2, 4}, Category: "Stream for Humanity"}),
		NewStreamHandler(streams),
	)
	return router
}

func doGet(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

var validCreds = domain.Credentials{ClientID: "id", ClientSecret: "secret"}

func TestHealth_NoUpstreamCall(t *testing.T) {
	upstream := &fakeTwitch{}
	router := newTestRouter(t, upstream, validCreds)

	w, body := doGet(t, router, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
	assert.Equal(t, "Serveur backend fonctionnel", body.Message)
	require.NotNil(t, body.Configured)
	assert.True(t, *body.Configured)
	assert.EqualValues(t, 0, upstream.hits.Load())
}

func TestHealth_Unconfigured(t *testing.T) {
	router := newTestRouter(t, &fakeTwitch{}, domain.Credentials{ClientID: "id"})

	w, body := doGet(t, router, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, body.Configured)
	assert.False(t, *body.Configured)
}

func TestStreams_Unconfigured(t *testing.T) {
	upstream := &fakeTwitch{}
	router := newTestRouter(t, upstream, domain.Credentials{})

	w, body := doGet(t, router, "/api/streams")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Error)
	assert.Nil(t, body.Data)
	assert.EqualValues(t, 0, upstream.hits.Load())
}

func TestStreams_CategoryNotFound(t *testing.T) {
	router := newTestRouter(t, &fakeTwitch{games: `{"data":[]}`}, validCreds)

	w, body := doGet(t, router, "/api/streams")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Catégorie \"Stream for Humanity\" non trouvée"}`, w.Body.String())
	assert.False(t, body.Success)
}

func TestStreams_SortedByViewers(t *testing.T) {
	upstream := &fakeTwitch{
		games: `{"data":[{"id":"509658","name":"Stream for Humanity"}]}`,
		streams: `{"data":[
			{"id":"1","user_login":"small","user_name":"Small","viewer_count":50},
			{"id":"2","user_login":"big","user_name":"Big","viewer_count":200}
		]}`,
	}
	router := newTestRouter(t, upstream, validCreds)

	w, body := doGet(t, router, "/api/streams")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "big", body.Data[0].UserLogin)
	assert.Equal(t, 200, body.Data[0].ViewerCount)
	assert.Equal(t, "small", body.Data[1].UserLogin)

	// token, games, streams
	assert.EqualValues(t, 3, upstream.hits.Load())

	// token and category come from the session the second time
	doGet(t, router, "/api/streams")
	assert.EqualValues(t, 4, upstream.hits.Load())
}

func TestStreams_EmptyCategory(t *testing.T) {
	router := newTestRouter(t, &fakeTwitch{
		games:   `{"data":[{"id":"509658"}]}`,
		streams: `{"data":[]}`,
	}, validCreds)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/streams", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
}

func TestStreams_UpstreamFailure(t *testing.T) {
	router := newTestRouter(t, &fakeTwitch{
		games:      `{"data":[{"id":"509658"}]}`,
		streamCode: http.StatusServiceUnavailable,
	}, validCreds)

	w, body := doGet(t, router, "/api/streams")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, domain.MsgStreamsFailed, body.Error)
	assert.Nil(t, body.Data)
}

func TestStatus_ReportsSession(t *testing.T) {
	upstream := &fakeTwitch{
		games:   `{"data":[{"id":"509658"}]}`,
		streams: `{"data":[]}`,
	}
	router := newTestRouter(t, upstream, validCreds)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"configured":true,"token_state":"absent"}}`, w.Body.String())

	doGet(t, router, "/api/streams")
	hits := upstream.hits.Load()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var body struct {
		Data domain.CacheStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.TokenValid, body.Data.TokenState)
	assert.Equal(t, domain.CategoryID("509658"), body.Data.CategoryID)
	assert.NotNil(t, body.Data.TokenExpiresAt)
	assert.NotContains(t, w.Body.String(), "app-token")
	assert.Equal(t, hits, upstream.hits.Load())
}

func TestViewerConfig(t *testing.T) {
	router := newTestRouter(t, &fakeTwitch{}, validCreds)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"max_streams":4,"layouts":[1,2,4],"category":"Stream for Humanity"}}`, w.Body.String())
}

func TestServeStatic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>multiview</h1>"), 0o644))

	router := gin.New()
	assert.True(t, ServeStatic(router, dir))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "multiview")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TWITCH_CLIENT_SECRET=topsecret"), 0o600))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/.env", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.False(t, ServeStatic(gin.New(), filepath.Join(dir, "missing")))
	assert.False(t, ServeStatic(gin.New(), ""))
}

func TestServeStatic_HidesDotfilesAndListings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>multiview</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TWITCH_CLIENT_SECRET=topsecret"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("[core]"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "a.js"), []byte("console.log(1)"), 0o644))

	router := gin.New()
	require.True(t, ServeStatic(router, dir))

	tests := []struct {
		path string
		want int
	}{
		{"/.env", http.StatusNotFound},
		{"/.git/config", http.StatusNotFound},
		{"/assets/", http.StatusNotFound},
		{"/assets/a.js", http.StatusOK},
		{"/", http.StatusOK},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.want, w.Code, tt.path)
		assert.NotContains(t, w.Body.String(), "topsecret", tt.path)
		assert.NotContains(t, w.Body.String(), "a.js</a>", tt.path)
	}
}
