package service

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	treatymodels "cedent/internal/treaty/models"
	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
)

// Match finds the single treaty applicable to a line of business at a
// point in time. When several treaties qualify the earliest effective
// one wins, with the treaty ID as a final tie-break, so repeated runs
// always pick the same treaty. No treaty stacking: exactly one treaty
// covers a policy.
func (s *Service) Match(ctx context.Context, lob id.LineOfBusiness, asOf time.Time) (*treatymodels.Treaty, error) {
	ctx, span := s.tracer.Start(ctx, "engine.match")
	defer span.End()
	span.SetAttributes(attribute.String("line_of_business", string(lob)))

	candidates, err := s.treaties.FindActiveByLOB(ctx, lob, asOf)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "treaty lookup failed")
	}

	applicable := candidates[:0]
	for _, t := range candidates {
		if t.Covers(lob, asOf) {
			applicable = append(applicable, t)
		}
	}
	if len(applicable) == 0 {
		return nil, dErrors.New(dErrors.CodeNoApplicableTreaty, "No active treaty found. Risk not allocated.")
	}

	sort.Slice(applicable, func(i, j int) bool {
		if !applicable[i].EffectiveFrom.Equal(applicable[j].EffectiveFrom) {
			return applicable[i].EffectiveFrom.Before(applicable[j].EffectiveFrom)
		}
		return applicable[i].ID.String() < applicable[j].ID.String()
	})

	matched := applicable[0]
	span.SetAttributes(
		attribute.String("treaty_id", matched.ID.String()),
		attribute.String("treaty_type", string(matched.Type)),
	)
	return matched, nil
}
