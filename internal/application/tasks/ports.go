package tasks

import (
	"context"

	"github.com/andrescamacho/reliefops-go/internal/application/delivery"
	domainDelivery "github.com/andrescamacho/reliefops-go/internal/domain/delivery"
)

// DeliveryService is the part of the delivery engine the manager drives
type DeliveryService interface {
	Validate(ctx context.Context, req delivery.Request) delivery.ValidationResult
	ExecuteQueued(ctx context.Context, req delivery.Request) (*delivery.QueuedResult, error)
	ExecuteImmediate(ctx context.Context, req delivery.Request) (*delivery.ImmediateResult, error)
	Cancel(ctx context.Context, id domainDelivery.ID, reason string) error
	Record(id domainDelivery.ID) (*domainDelivery.Record, bool)
}

// FleetRepairer puts damaged vehicles back in service
type FleetRepairer interface {
	RepairDamaged(limit int) []string
}

// RoundSource reports the current round for stamping tasks and ledger entries
type RoundSource interface {
	CurrentRound() int
}
