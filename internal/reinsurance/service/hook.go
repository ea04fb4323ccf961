package service

import (
	"context"

	policymodels "cedent/internal/policy/models"
)

// ActivationHook adapts the engine to the policy service's activation
// callback, which only cares whether allocation succeeded.
type ActivationHook struct {
	Engine *Service
}

func (h ActivationHook) Allocate(ctx context.Context, p *policymodels.Policy) error {
	_, err := h.Engine.Allocate(ctx, p)
	return err
}
