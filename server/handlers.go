// server/handlers.go
package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/odoo-mcp/odoo-mcp-server/access"
	"github.com/odoo-mcp/odoo-mcp-server/config"
	logger "github.com/odoo-mcp/odoo-mcp-server/logging"
	"github.com/odoo-mcp/odoo-mcp-server/model"
	"go.uber.org/zap"
)

// Records is the slice of the Odoo connection the tools need.
// *odoo.Connection satisfies it.
type Records interface {
	SearchRead(ctx context.Context, model string, domain []any, fields []string, kwargs map[string]any) ([]map[string]any, error)
	Read(ctx context.Context, model string, ids []int, fields []string) ([]map[string]any, error)
	Create(ctx context.Context, model string, values map[string]any) (int, error)
	Write(ctx context.Context, model string, ids []int, values map[string]any) error
	Unlink(ctx context.Context, model string, ids []int) error
}

// Service implements the MCP tool handlers. Every data tool validates
// the operation against the access controller before calling Odoo, so a
// denied request never reaches the server.
type Service struct {
	conn       Records
	controller *access.Controller
	limits     config.LimitsConfiguration
}

func NewService(conn Records, controller *access.Controller, limits config.LimitsConfiguration) *Service {
	return &Service{conn: conn, controller: controller, limits: limits}
}

// clampLimit applies the configured default and ceiling to a
// client-supplied record limit.
func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.limits.DefaultLimit
	}
	if limit > s.limits.MaxLimit {
		return s.limits.MaxLimit
	}
	return limit
}

func (s *Service) HandleListModels(ctx context.Context, _ *mcp.CallToolRequest, _ ListModelsInput) (*mcp.CallToolResult, ListModelsOutput, error) {
	models, err := s.controller.ListEnabledModels(ctx)
	if err != nil {
		return nil, ListModelsOutput{}, err
	}
	return nil, ListModelsOutput{Models: models, Tier: s.controller.Tier()}, nil
}

func (s *Service) HandleGetPermissions(ctx context.Context, _ *mcp.CallToolRequest, input GetPermissionsInput) (*mcp.CallToolResult, GetPermissionsOutput, error) {
	if input.Model != "" {
		perms, err := s.controller.GetModelPermissions(ctx, input.Model)
		if err != nil {
			return nil, GetPermissionsOutput{}, err
		}
		return nil, GetPermissionsOutput{Permissions: map[string]model.ModelPermissions{input.Model: perms}}, nil
	}
	return nil, GetPermissionsOutput{Permissions: s.controller.GetAllPermissions(ctx)}, nil
}

func (s *Service) HandleSearchRecords(ctx context.Context, _ *mcp.CallToolRequest, input SearchRecordsInput) (*mcp.CallToolResult, SearchRecordsOutput, error) {
	if input.Model == "" {
		return nil, SearchRecordsOutput{}, fmt.Errorf("model is required")
	}
	if err := s.controller.ValidateModelAccess(ctx, input.Model, model.OperationRead); err != nil {
		return nil, SearchRecordsOutput{}, err
	}
	domain := make([]any, len(input.Domain))
	for i, cond := range input.Domain {
		domain[i] = cond
	}
	kwargs := map[string]any{"limit": s.clampLimit(input.Limit)}
	records, err := s.conn.SearchRead(ctx, input.Model, domain, input.Fields, kwargs)
	if err != nil {
		logger.Error("search_records failed", zap.String("model", input.Model), zap.Error(err))
		return nil, SearchRecordsOutput{}, err
	}
	return nil, SearchRecordsOutput{Records: records, Count: len(records)}, nil
}

func (s *Service) HandleReadRecords(ctx context.Context, _ *mcp.CallToolRequest, input ReadRecordsInput) (*mcp.CallToolResult, ReadRecordsOutput, error) {
	if input.Model == "" || len(input.IDs) == 0 {
		return nil, ReadRecordsOutput{}, fmt.Errorf("model and ids are required")
	}
	if err := s.controller.ValidateModelAccess(ctx, input.Model, model.OperationRead); err != nil {
		return nil, ReadRecordsOutput{}, err
	}
	records, err := s.conn.Read(ctx, input.Model, input.IDs, input.Fields)
	if err != nil {
		logger.Error("read_records failed", zap.String("model", input.Model), zap.Error(err))
		return nil, ReadRecordsOutput{}, err
	}
	return nil, ReadRecordsOutput{Records: records}, nil
}

func (s *Service) HandleCreateRecord(ctx context.Context, _ *mcp.CallToolRequest, input CreateRecordInput) (*mcp.CallToolResult, CreateRecordOutput, error) {
	if input.Model == "" || len(input.Values) == 0 {
		return nil, CreateRecordOutput{}, fmt.Errorf("model and values are required")
	}
	if err := s.controller.ValidateModelAccess(ctx, input.Model, model.OperationCreate); err != nil {
		return nil, CreateRecordOutput{}, err
	}
	id, err := s.conn.Create(ctx, input.Model, input.Values)
	if err != nil {
		logger.Error("create_record failed", zap.String("model", input.Model), zap.Error(err))
		return nil, CreateRecordOutput{}, err
	}
	return nil, CreateRecordOutput{ID: id}, nil
}

func (s *Service) HandleUpdateRecord(ctx context.Context, _ *mcp.CallToolRequest, input UpdateRecordInput) (*mcp.CallToolResult, UpdateRecordOutput, error) {
	if input.Model == "" || len(input.IDs) == 0 || len(input.Values) == 0 {
		return nil, UpdateRecordOutput{}, fmt.Errorf("model, ids and values are required")
	}
	if err := s.controller.ValidateModelAccess(ctx, input.Model, model.OperationWrite); err != nil {
		return nil, UpdateRecordOutput{}, err
	}
	if err := s.conn.Write(ctx, input.Model, input.IDs, input.Values); err != nil {
		logger.Error("update_record failed", zap.String("model", input.Model), zap.Error(err))
		return nil, UpdateRecordOutput{}, err
	}
	return nil, UpdateRecordOutput{Updated: len(input.IDs)}, nil
}

func (s *Service) HandleDeleteRecord(ctx context.Context, _ *mcp.CallToolRequest, input DeleteRecordInput) (*mcp.CallToolResult, DeleteRecordOutput, error) {
	if input.Model == "" || len(input.IDs) == 0 {
		return nil, DeleteRecordOutput{}, fmt.Errorf("model and ids are required")
	}
	if err := s.controller.ValidateModelAccess(ctx, input.Model, model.OperationUnlink); err != nil {
		return nil, DeleteRecordOutput{}, err
	}
	if err := s.conn.Unlink(ctx, input.Model, input.IDs); err != nil {
		logger.Error("delete_record failed", zap.String("model", input.Model), zap.Error(err))
		return nil, DeleteRecordOutput{}, err
	}
	return nil, DeleteRecordOutput{Deleted: len(input.IDs)}, nil
}
