// Package service implements the reinsurance engine: treaty matching,
// risk allocation, allocation validation and exposure reporting.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"cedent/internal/platform/metrics"
	policymodels "cedent/internal/policy/models"
	"cedent/internal/reinsurance/models"
	reinsurermodels "cedent/internal/reinsurer/models"
	treatymodels "cedent/internal/treaty/models"
	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
	audit "cedent/pkg/platform/audit"
	"cedent/pkg/platform/sentinel"
)

// AllocationStore is the persistence contract for risk allocations.
type AllocationStore interface {
	Create(ctx context.Context, a *models.RiskAllocation) error
	FindByPolicy(ctx context.Context, policyID id.PolicyID) (*models.RiskAllocation, error)
}

// TreatyStore is the slice of the treaty store the engine needs.
type TreatyStore interface {
	FindByID(ctx context.Context, treatyID id.TreatyID) (*treatymodels.Treaty, error)
	FindActiveByLOB(ctx context.Context, lob id.LineOfBusiness, asOf time.Time) ([]*treatymodels.Treaty, error)
}

// PolicyStore is the slice of the policy store the engine needs.
type PolicyStore interface {
	FindByNumber(ctx context.Context, policyNumber string) (*policymodels.Policy, error)
	List(ctx context.Context) ([]*policymodels.Policy, error)
}

// ReinsurerLookup resolves reinsurer names for exposure breakdowns.
type ReinsurerLookup interface {
	FindByID(ctx context.Context, reinsurerID id.ReinsurerID) (*reinsurermodels.Reinsurer, error)
}

// Service is the reinsurance engine.
type Service struct {
	allocations AllocationStore
	treaties    TreatyStore
	policies    PolicyStore
	reinsurers  ReinsurerLookup
	recorder    audit.Recorder
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	log         *slog.Logger
}

func New(allocations AllocationStore, treaties TreatyStore, policies PolicyStore,
	reinsurers ReinsurerLookup, recorder audit.Recorder, m *metrics.Metrics, log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		allocations: allocations,
		treaties:    treaties,
		policies:    policies,
		reinsurers:  reinsurers,
		recorder:    recorder,
		metrics:     m,
		tracer:      otel.Tracer("cedent/reinsurance"),
		log:         log,
	}
}

// activePolicy resolves a policy number to an on-risk policy. Policies
// that exist but are not ACTIVE are reported as not found, matching the
// engine's outward contract.
func (s *Service) activePolicy(ctx context.Context, policyNumber string) (*policymodels.Policy, error) {
	p, err := s.policies.FindByNumber(ctx, policyNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Policy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "policy lookup failed")
	}
	if !p.IsActive() {
		return nil, dErrors.New(dErrors.CodeNotFound, "Policy not found")
	}
	return p, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.recorder != nil {
		_ = s.recorder.Emit(ctx, event)
	}
}
