package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/unlimited-mining/internal/clock"
	"github.com/annel0/unlimited-mining/internal/game"
	"github.com/annel0/unlimited-mining/internal/host"
	"github.com/annel0/unlimited-mining/internal/metrics"
	"github.com/annel0/unlimited-mining/internal/middleware"
	"github.com/annel0/unlimited-mining/internal/storage"
	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/voxel"
	"github.com/annel0/unlimited-mining/internal/world"
)

type testServer struct {
	router *gin.Engine
	game   *game.Game
	world  *host.MemoryWorld
}

func newTestServer(t *testing.T, admins ...string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	dispatcher := host.NewDispatcher()
	mw := host.NewMemoryWorld()
	g, err := game.New(game.Config{
		Mine: world.Config{
			Origin:    vec.New(0, 0, 0),
			Width:     1,
			Length:    2,
			CellSize:  vec.New(10, 10, 10),
			VoxelTag:  "um:voxel",
			BrickName: "cube",
			Entrance:  world.FixedSelector{Type: voxel.Dirt},
		},
		Admins: admins,
	}, game.Deps{
		World:        mw,
		Presenter:    host.NewRecordingPresenter(0),
		Interactions: dispatcher,
		Departures:   dispatcher,
		Store:        storage.NewMemoryStore(),
		Clock:        clock.NewFake(time.Unix(0, 0)),
		Metrics:      metrics.NewGameMetrics(reg),
	})
	require.NoError(t, err)
	require.NoError(t, g.Init(context.Background()))
	t.Cleanup(func() { _ = g.Stop(context.Background()) })

	rs := NewRestServer(Config{Game: g, Registry: reg})
	return &testServer{router: rs.Router(), game: g, world: mw}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var resp GenericResponse
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w, _ := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMineLifecycleEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodGet, "/api/mine", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, _ = ts.do(t, http.MethodPost, "/api/mine/clear", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "Очистка несозданной шахты")

	w, resp = ts.do(t, http.MethodPost, "/api/mine/create", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["created"])
	assert.Equal(t, 2.0, data["voxels"])

	w, _ = ts.do(t, http.MethodPost, "/api/mine/create", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/mine/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ts.game.MineStatus().Created)
}

func TestInteractAndStats(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.game.CreateMine(context.Background()))

	hit := host.Interaction{PlayerID: "p1", Position: vec.New(0, 10, 0), BrickName: "cube", Tag: "um:voxel"}
	for i := 0; i < 3; i++ {
		w, _ := ts.do(t, http.MethodPost, "/api/interact", hit)
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	w, resp := ts.do(t, http.MethodGet, "/api/players/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := resp.Data.(map[string]interface{})
	assert.Equal(t, "p1", stats["id"])

	w, resp = ts.do(t, http.MethodPost, "/api/players/p1/commands/inv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := resp.Data.(map[string]interface{})
	assert.Equal(t, "inv", res["command"])
	assert.NotEmpty(t, res["lines"])

	w, _ = ts.do(t, http.MethodPost, "/api/players/p1/leave", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/interact", map[string]string{"tag": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommandErrors(t *testing.T) {
	ts := newTestServer(t, "root")

	w, resp := ts.do(t, http.MethodPost, "/api/players/p1/commands/dance", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, w.Header().Get(middleware.TraceIDHeader), resp.TraceID, "ошибка содержит trace-ID запроса")

	w, _ = ts.do(t, http.MethodPost, "/api/players/p1/commands/createmine", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/players/root/commands/createmine", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/mine", nil)

	w, _ := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "um_rest_http_request_duration_seconds")
}
