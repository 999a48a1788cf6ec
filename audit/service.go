// audit/service.go
package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/odoo-mcp/odoo-mcp-server/access"
	logger "github.com/odoo-mcp/odoo-mcp-server/logging"
	"github.com/odoo-mcp/odoo-mcp-server/util"
)

// Service records access decisions. Wire it to the event bus so every
// gate check ends up in the audit index.
type Service struct {
	repository Repository
}

func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// Subscribe attaches the service to the controller's decision events.
func (s *Service) Subscribe(bus *util.EventBus) {
	bus.Subscribe(access.DecisionEvent, s.handleDecision)
}

func (s *Service) handleDecision(ctx context.Context, event util.Event) error {
	decision, ok := event.Payload.(access.Decision)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s event", event.Type)
	}

	log := AccessLog{
		Timestamp: decision.Timestamp,
		Model:     decision.Model,
		Operation: decision.Operation,
		Allowed:   decision.Allowed,
		Reason:    decision.Reason,
		Tier:      decision.Tier,
	}
	if err := s.repository.LogAccess(ctx, log); err != nil {
		logger.Warn("Failed to record access decision",
			zap.Error(err), zap.String("model", decision.Model))
		return err
	}
	return nil
}
