package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	policymodels "cedent/internal/policy/models"
	"cedent/internal/reinsurance/models"
	treatymodels "cedent/internal/treaty/models"
	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
	audit "cedent/pkg/platform/audit"
	"cedent/pkg/platform/sentinel"
	"cedent/pkg/requestcontext"
)

// AllocateByNumber resolves an active policy and runs Allocate.
func (s *Service) AllocateByNumber(ctx context.Context, policyNumber string) (*models.RiskAllocation, error) {
	p, err := s.activePolicy(ctx, policyNumber)
	if err != nil {
		return nil, err
	}
	return s.Allocate(ctx, p)
}

// Allocate matches a treaty and cedes the policy's risk under it.
// Idempotent: if an allocation already exists for the policy it is
// returned unchanged, including when a concurrent caller wins the
// creation race. When the treaty conditions cede nothing, no record is
// written and NoRiskCeded is signalled.
func (s *Service) Allocate(ctx context.Context, p *policymodels.Policy) (*models.RiskAllocation, error) {
	ctx, span := s.tracer.Start(ctx, "engine.allocate")
	defer span.End()
	span.SetAttributes(attribute.String("policy_number", p.PolicyNumber))

	existing, err := s.allocations.FindByPolicy(ctx, p.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "allocation lookup failed")
	}

	now := requestcontext.Now(ctx)
	treaty, err := s.Match(ctx, p.LineOfBusiness, now)
	if err != nil {
		return nil, err
	}

	cededAmount, cededPercentage := cede(p.SumInsured, treaty)
	if cededAmount == 0 {
		if s.metrics != nil {
			s.metrics.AllocationsNoCede.Inc()
		}
		return nil, dErrors.New(dErrors.CodeNoRiskCeded, "No risk ceded under treaty conditions.")
	}

	allocation := &models.RiskAllocation{
		ID:       id.AllocationID(uuid.New()),
		PolicyID: p.ID,
		Lines: []models.AllocationLine{{
			ReinsurerID:         treaty.ReinsurerID,
			TreatyID:            treaty.ID,
			AllocatedAmount:     cededAmount,
			AllocatedPercentage: cededPercentage,
		}},
		RetainedAmount: p.SumInsured - cededAmount,
		CalculatedBy:   requestcontext.ActorID(ctx),
		CalculatedAt:   now,
	}

	if err := s.allocations.Create(ctx, allocation); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the race; the winner's allocation is the answer.
			return s.allocations.FindByPolicy(ctx, p.ID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist allocation")
	}

	if s.metrics != nil {
		s.metrics.AllocationsCreated.Inc()
	}
	s.emit(ctx, audit.Event{
		EntityType:  audit.EntityAllocation,
		EntityID:    allocation.ID.String(),
		Action:      audit.ActionAllocate,
		NewValue:    allocation,
		PerformedBy: requestcontext.ActorID(ctx),
	})
	s.log.InfoContext(ctx, "risk allocated",
		"policy_number", p.PolicyNumber,
		"treaty_id", treaty.ID.String(),
		"ceded_amount", cededAmount,
		"retained_amount", allocation.RetainedAmount)
	return allocation, nil
}

// GetAllocation returns the stored allocation for an active policy.
func (s *Service) GetAllocation(ctx context.Context, policyNumber string) (*models.RiskAllocation, error) {
	p, err := s.activePolicy(ctx, policyNumber)
	if err != nil {
		return nil, err
	}
	allocation, err := s.allocations.FindByPolicy(ctx, p.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoAllocation, "No risk allocation found.")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "allocation lookup failed")
	}
	return allocation, nil
}

// cede applies the treaty's cession rule to a sum insured.
func cede(sumInsured float64, t *treatymodels.Treaty) (amount, percentage float64) {
	switch t.Type {
	case treatymodels.TypeQuotaShare:
		percentage = t.SharePercentage
		amount = sumInsured * percentage / 100
	case treatymodels.TypeSurplus:
		if sumInsured > t.RetentionLimit {
			surplus := sumInsured - t.RetentionLimit
			amount = min(surplus, t.TreatyLimit)
			if sumInsured > 0 {
				percentage = amount / sumInsured * 100
			}
		}
	}
	return amount, percentage
}
