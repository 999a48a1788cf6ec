// router/router_test.go
package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	testify_mock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/odoo-mcp/odoo-mcp-server/access"
	"github.com/odoo-mcp/odoo-mcp-server/cache"
	logger "github.com/odoo-mcp/odoo-mcp-server/logging"
	"github.com/odoo-mcp/odoo-mcp-server/router"
	mocks "github.com/odoo-mcp/odoo-mcp-server/test/mock"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	dir, err := os.MkdirTemp("", "router-test-logs")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(dir)
	defer logger.Sync()

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type fakeChecker struct {
	healthy  bool
	detail   string
	database string
}

func (f *fakeChecker) CheckHealth() (bool, string) { return f.healthy, f.detail }
func (f *fakeChecker) Database() string            { return f.database }

func newRouter(t *testing.T, checker *fakeChecker) (*gin.Engine, *access.Controller, *mocks.Executor) {
	t.Helper()

	executor := new(mocks.Executor)
	executor.On("ExecuteKw", testify_mock.Anything, "mcp.enabled.model", "search",
		[]any{[]any{}}, map[string]any{"limit": 1}).
		Return([]any{}, nil).Once()

	controller := access.NewController(cache.NewMemoryStore(5*time.Minute), nil)
	require.NoError(t, controller.SetConnection(context.Background(), executor))
	return router.SetupRouter(checker, controller), controller, executor
}

func TestHealthEndpoint(t *testing.T) {
	engine, _, _ := newRouter(t, &fakeChecker{healthy: true, detail: "Connected (version: 17.0)", database: "odoo"})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	engine.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, true, body["healthy"])
	assert.Equal(t, "odoo", body["database"])
	assert.Equal(t, access.TierEnhanced, body["tier"])
}

func TestHealthEndpoint_Unhealthy(t *testing.T) {
	engine, _, _ := newRouter(t, &fakeChecker{healthy: false, detail: "Not connected"})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	engine.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestCacheEndpoint(t *testing.T) {
	engine, _, _ := newRouter(t, &fakeChecker{healthy: true})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodDelete, "/cache", nil)
	engine.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, true, body["cleared"])
}
