// server/server_test.go
package server_test

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	testify_mock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/odoo-mcp/odoo-mcp-server/access"
	"github.com/odoo-mcp/odoo-mcp-server/cache"
	"github.com/odoo-mcp/odoo-mcp-server/config"
	odoo_errors "github.com/odoo-mcp/odoo-mcp-server/errors"
	"github.com/odoo-mcp/odoo-mcp-server/server"
	mocks "github.com/odoo-mcp/odoo-mcp-server/test/mock"
)

var errProbe = assert.AnError

// newService wires a Service over a basic-tier controller backed by
// mocks. Permission checks go through the executor's FieldsGet probe,
// record operations through the Records mock.
func newService(t *testing.T) (*server.Service, *mocks.Executor, *mocks.Records) {
	t.Helper()

	executor := new(mocks.Executor)
	// Capability detection fails, so the controller falls back to the
	// basic tier.
	executor.On("ExecuteKw", testify_mock.Anything, "mcp.enabled.model", "search",
		[]any{[]any{}}, map[string]any{"limit": 1}).
		Return(nil, errProbe).Once()

	controller := access.NewController(cache.NewMemoryStore(5*time.Minute), nil)
	require.NoError(t, controller.SetConnection(context.Background(), executor))

	records := new(mocks.Records)
	limits := config.LimitsConfiguration{DefaultLimit: 10, MaxLimit: 100}
	return server.NewService(records, controller, limits), executor, records
}

func allowModel(executor *mocks.Executor, name string) {
	executor.On("FieldsGet", testify_mock.Anything, name).
		Return(map[string]any{"name": map[string]any{"type": "char"}}, nil)
}

func denyModel(executor *mocks.Executor, name string) {
	executor.On("FieldsGet", testify_mock.Anything, name).
		Return(nil, errProbe)
}

func TestListTools(t *testing.T) {
	svc, _, _ := newService(t)
	srv := server.NewServer(svc)

	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := srv.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "dev"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, result.Tools, 7)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"create_record",
		"delete_record",
		"get_permissions",
		"list_models",
		"read_records",
		"search_records",
		"update_record",
	}, names)
}

func TestSearchRecordsRoundTrip(t *testing.T) {
	svc, executor, records := newService(t)
	allowModel(executor, "res.partner")
	records.On("SearchRead", testify_mock.Anything, "res.partner",
		[]any{[]any{"is_company", "=", true}}, []string{"name"},
		map[string]any{"limit": 10}).
		Return([]map[string]any{{"id": 1, "name": "Azure Interior"}}, nil)

	srv := server.NewServer(svc)
	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := srv.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "dev"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "search_records",
		Arguments: server.SearchRecordsInput{
			Model:  "res.partner",
			Domain: [][]any{{"is_company", "=", true}},
			Fields: []string{"name"},
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.NotNil(t, result.StructuredContent)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var output server.SearchRecordsOutput
	require.NoError(t, json.Unmarshal(raw, &output))

	assert.Equal(t, 1, output.Count)
	require.Len(t, output.Records, 1)
	assert.Equal(t, "Azure Interior", output.Records[0]["name"])
}

func TestHandleSearchRecords_LimitClamped(t *testing.T) {
	svc, executor, records := newService(t)
	allowModel(executor, "res.partner")
	records.On("SearchRead", testify_mock.Anything, "res.partner",
		[]any{}, []string(nil), map[string]any{"limit": 100}).
		Return([]map[string]any{}, nil)

	_, output, err := svc.HandleSearchRecords(context.Background(), nil, server.SearchRecordsInput{
		Model: "res.partner",
		Limit: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, output.Count)
	records.AssertExpectations(t)
}

func TestHandleSearchRecords_Denied(t *testing.T) {
	svc, executor, records := newService(t)
	denyModel(executor, "account.move")

	_, _, err := svc.HandleSearchRecords(context.Background(), nil, server.SearchRecordsInput{
		Model: "account.move",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, odoo_errors.ErrAccessDenied)
	records.AssertNotCalled(t, "SearchRead",
		testify_mock.Anything, testify_mock.Anything, testify_mock.Anything,
		testify_mock.Anything, testify_mock.Anything)
}

func TestHandleSearchRecords_MissingModel(t *testing.T) {
	svc, _, _ := newService(t)
	_, _, err := svc.HandleSearchRecords(context.Background(), nil, server.SearchRecordsInput{})
	assert.Error(t, err)
}

func TestHandleReadRecords(t *testing.T) {
	svc, executor, records := newService(t)
	allowModel(executor, "res.partner")
	records.On("Read", testify_mock.Anything, "res.partner", []int{3, 4}, []string{"name"}).
		Return([]map[string]any{{"id": 3}, {"id": 4}}, nil)

	_, output, err := svc.HandleReadRecords(context.Background(), nil, server.ReadRecordsInput{
		Model:  "res.partner",
		IDs:    []int{3, 4},
		Fields: []string{"name"},
	})
	require.NoError(t, err)
	assert.Len(t, output.Records, 2)
}

func TestHandleReadRecords_RequiresIDs(t *testing.T) {
	svc, _, _ := newService(t)
	_, _, err := svc.HandleReadRecords(context.Background(), nil, server.ReadRecordsInput{
		Model: "res.partner",
	})
	assert.Error(t, err)
}

func TestHandleCreateRecord(t *testing.T) {
	svc, executor, records := newService(t)
	allowModel(executor, "res.partner")
	values := map[string]any{"name": "New Partner"}
	records.On("Create", testify_mock.Anything, "res.partner", values).Return(7, nil)

	_, output, err := svc.HandleCreateRecord(context.Background(), nil, server.CreateRecordInput{
		Model:  "res.partner",
		Values: values,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, output.ID)
}

func TestHandleCreateRecord_Denied(t *testing.T) {
	svc, executor, records := newService(t)
	denyModel(executor, "res.users")

	_, _, err := svc.HandleCreateRecord(context.Background(), nil, server.CreateRecordInput{
		Model:  "res.users",
		Values: map[string]any{"login": "x"},
	})
	assert.ErrorIs(t, err, odoo_errors.ErrAccessDenied)
	records.AssertNotCalled(t, "Create",
		testify_mock.Anything, testify_mock.Anything, testify_mock.Anything)
}

func TestHandleUpdateRecord(t *testing.T) {
	svc, executor, records := newService(t)
	allowModel(executor, "res.partner")
	values := map[string]any{"phone": "123"}
	records.On("Write", testify_mock.Anything, "res.partner", []int{1, 2, 3}, values).Return(nil)

	_, output, err := svc.HandleUpdateRecord(context.Background(), nil, server.UpdateRecordInput{
		Model:  "res.partner",
		IDs:    []int{1, 2, 3},
		Values: values,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, output.Updated)
}

func TestHandleDeleteRecord(t *testing.T) {
	svc, executor, records := newService(t)
	allowModel(executor, "res.partner")
	records.On("Unlink", testify_mock.Anything, "res.partner", []int{9}).Return(nil)

	_, output, err := svc.HandleDeleteRecord(context.Background(), nil, server.DeleteRecordInput{
		Model: "res.partner",
		IDs:   []int{9},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, output.Deleted)
}

func TestHandleGetPermissions_SingleModel(t *testing.T) {
	svc, executor, _ := newService(t)
	allowModel(executor, "res.partner")

	_, output, err := svc.HandleGetPermissions(context.Background(), nil, server.GetPermissionsInput{
		Model: "res.partner",
	})
	require.NoError(t, err)
	perms, ok := output.Permissions["res.partner"]
	require.True(t, ok)
	assert.True(t, perms.Enabled)
	assert.True(t, perms.CanRead)
	assert.True(t, perms.CanUnlink)
}

func TestHandleListModels_BasicTier(t *testing.T) {
	svc, executor, _ := newService(t)
	executor.On("ExecuteKw", testify_mock.Anything, "ir.model", "search",
		[]any{[]any{[]any{"transient", "=", false}}}, map[string]any{"limit": 1000}).
		Return([]any{int64(11)}, nil)
	executor.On("ExecuteKw", testify_mock.Anything, "ir.model", "read",
		[]any{[]any{11}}, map[string]any{"fields": []string{"model", "name"}}).
		Return([]any{map[string]any{"model": "res.partner", "name": "Contact"}}, nil)

	_, output, err := svc.HandleListModels(context.Background(), nil, server.ListModelsInput{})
	require.NoError(t, err)
	assert.Equal(t, access.TierBasic, output.Tier)
	require.Len(t, output.Models, 1)
	assert.Equal(t, "res.partner", output.Models[0].Model)
}
