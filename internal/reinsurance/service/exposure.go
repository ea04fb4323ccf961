package service

import (
	"context"
	"errors"
	"math"

	"go.opentelemetry.io/otel/attribute"

	"cedent/internal/reinsurance/models"
	dErrors "cedent/pkg/domain-errors"
	"cedent/pkg/platform/sentinel"
	"cedent/pkg/requestcontext"
)

// Exposure computes the retained/ceded breakdown for one active policy
// from its stored allocation. Percentages are 0 when the sum insured is
// 0; the division is guarded, never attempted.
func (s *Service) Exposure(ctx context.Context, policyNumber string) (*models.ExposureSummary, error) {
	ctx, span := s.tracer.Start(ctx, "engine.exposure")
	defer span.End()
	span.SetAttributes(attribute.String("policy_number", policyNumber))

	p, err := s.activePolicy(ctx, policyNumber)
	if err != nil {
		return nil, err
	}

	allocation, err := s.allocations.FindByPolicy(ctx, p.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoAllocation, "No allocations found for this policy")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "allocation lookup failed")
	}

	totalExposure := p.SumInsured
	cededAmount := allocation.CededAmount()
	retainedAmount := allocation.RetainedAmount
	if retainedAmount == 0 && cededAmount < totalExposure {
		retainedAmount = totalExposure - cededAmount
	}

	summary := &models.ExposureSummary{
		PolicyID:           p.ID,
		PolicyNumber:       p.PolicyNumber,
		TotalExposure:      totalExposure,
		RetainedAmount:     retainedAmount,
		RetainedPercentage: percentage(retainedAmount, totalExposure),
		CededAmount:        cededAmount,
		CededPercentage:    percentage(cededAmount, totalExposure),
		CalculatedAt:       requestcontext.Now(ctx),
	}

	for _, line := range allocation.Lines {
		breakdown := models.ExposureLine{
			AllocatedAmount:     line.AllocatedAmount,
			AllocatedPercentage: line.AllocatedPercentage,
		}
		if treaty, err := s.treaties.FindByID(ctx, line.TreatyID); err == nil {
			breakdown.Treaty = treaty.Name
		}
		if reinsurer, err := s.reinsurers.FindByID(ctx, line.ReinsurerID); err == nil {
			breakdown.Reinsurer = reinsurer.Name
		}
		summary.Allocations = append(summary.Allocations, breakdown)
	}

	if s.metrics != nil {
		s.metrics.ExposureComputed.Inc()
	}
	return summary, nil
}

// TotalExposure aggregates the sum insured across the active book.
func (s *Service) TotalExposure(ctx context.Context) (*models.TotalExposure, error) {
	ctx, span := s.tracer.Start(ctx, "engine.total_exposure")
	defer span.End()

	policies, err := s.policies.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "policy listing failed")
	}

	total := &models.TotalExposure{CalculatedAt: requestcontext.Now(ctx)}
	for _, p := range policies {
		if p.IsActive() {
			total.ActivePolicies++
			total.TotalExposure += p.SumInsured
		}
	}
	span.SetAttributes(attribute.Int("active_policies", total.ActivePolicies))
	return total, nil
}

// percentage is round(part/whole*100, 2) with a zero-whole guard.
func percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(part/whole*100*100) / 100
}
