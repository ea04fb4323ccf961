package service

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"cedent/internal/reinsurance/models"
	"cedent/pkg/platform/sentinel"
	"cedent/pkg/requestcontext"
)

// Validate checks proposed allocation lines against treaty and retention
// limits. It re-derives every figure from the policy rather than trusting
// the caller, and it accumulates violations instead of stopping at the
// first, so the verdict always carries the complete picture. The totals
// are returned even when the proposal is invalid.
func (s *Service) Validate(ctx context.Context, policyNumber string, lines []models.ProposedLine) (*models.ValidationResult, error) {
	ctx, span := s.tracer.Start(ctx, "engine.validate")
	defer span.End()
	span.SetAttributes(
		attribute.String("policy_number", policyNumber),
		attribute.Int("proposed_lines", len(lines)),
	)

	p, err := s.activePolicy(ctx, policyNumber)
	if err != nil {
		return nil, err
	}

	sumInsured := p.SumInsured
	retention := p.RetentionLimit
	violations := []string{}

	if sumInsured <= 0 {
		violations = append(violations, "Policy sum insured must be > 0")
	}
	if retention < 0 {
		violations = append(violations, "Policy retention limit cannot be negative")
	}

	cedableCapacity := max(0, sumInsured-retention)

	var totalCeded float64
	for _, line := range lines {
		if line.TreatyID.IsNil() {
			violations = append(violations, "Allocation line is missing a treaty reference")
			continue
		}
		treaty, err := s.treaties.FindByID(ctx, line.TreatyID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				violations = append(violations, "Treaty not found for treaty id "+line.TreatyID.String())
				continue
			}
			return nil, err
		}
		if line.AllocatedAmount <= 0 {
			violations = append(violations,
				"Allocated amount must be > 0 for treaty "+treaty.Name)
			continue
		}
		if treaty.TreatyLimit > 0 && line.AllocatedAmount > treaty.TreatyLimit {
			violations = append(violations,
				"Allocated amount ("+num(line.AllocatedAmount)+") exceeds treaty limit ("+
					num(treaty.TreatyLimit)+") for "+treaty.Name)
		}
		totalCeded += line.AllocatedAmount
	}

	if totalCeded > cedableCapacity {
		violations = append(violations,
			"Total ceded ("+num(totalCeded)+") exceeds cedable capacity ("+
				num(cedableCapacity)+") based on retention limit ("+num(retention)+")")
	}

	retainedAmount := max(0, sumInsured-totalCeded)
	if retainedAmount < retention {
		violations = append(violations,
			"Retained amount ("+num(retainedAmount)+") is below retention limit ("+num(retention)+")")
	}

	result := &models.ValidationResult{
		Valid:      len(violations) == 0,
		Violations: violations,
		Totals: models.ValidationTotals{
			SumInsured:      sumInsured,
			RetentionLimit:  retention,
			CededAmount:     totalCeded,
			RetainedAmount:  retainedAmount,
			CedableCapacity: cedableCapacity,
		},
		Timestamp: requestcontext.Now(ctx),
	}

	if s.metrics != nil {
		verdict := "valid"
		if !result.Valid {
			verdict = "invalid"
		}
		s.metrics.ValidationVerdicts.WithLabelValues(verdict).Inc()
	}
	return result, nil
}

// num renders amounts without trailing zeros, the way they appear in
// violation messages.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
