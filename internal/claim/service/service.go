// Package service orchestrates the claim lifecycle.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"cedent/internal/claim/models"
	"cedent/internal/platform/metrics"
	policymodels "cedent/internal/policy/models"
	"cedent/internal/sequence"
	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
	audit "cedent/pkg/platform/audit"
	"cedent/pkg/platform/sentinel"
	"cedent/pkg/requestcontext"
)

// Store is the persistence contract the service depends on.
type Store interface {
	Create(ctx context.Context, c *models.Claim) error
	FindByID(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	List(ctx context.Context) ([]*models.Claim, error)
	ListByPolicy(ctx context.Context, policyID id.PolicyID) ([]*models.Claim, error)
	Execute(ctx context.Context, claimID id.ClaimID,
		validate func(*models.Claim) error,
		mutate func(*models.Claim)) (*models.Claim, error)
}

// PolicyLookup resolves policies for claim validation.
type PolicyLookup interface {
	Get(ctx context.Context, policyNumber string) (*policymodels.Policy, error)
	GetByID(ctx context.Context, policyID id.PolicyID) (*policymodels.Policy, error)
}

// Service manages claims from submission through settlement.
type Service struct {
	store    Store
	policies PolicyLookup
	numbers  sequence.Allocator
	recorder audit.Recorder
	metrics  *metrics.Metrics
}

func New(store Store, policies PolicyLookup, numbers sequence.Allocator,
	recorder audit.Recorder, m *metrics.Metrics,
) *Service {
	return &Service{store: store, policies: policies, numbers: numbers,
		recorder: recorder, metrics: m}
}

// CreateInput carries the fields of a new claim.
type CreateInput struct {
	PolicyNumber string    `json:"policy_number"`
	ClaimAmount  float64   `json:"claim_amount"`
	IncidentDate time.Time `json:"incident_date"`
}

// Create registers a claim against an active policy. Policies that are
// not on risk cannot receive claims.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Claim, error) {
	p, err := s.policies.Get(ctx, in.PolicyNumber)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active policy found")
		}
		return nil, err
	}
	if !p.IsActive() {
		return nil, dErrors.New(dErrors.CodeNotFound, "no active policy found")
	}

	number, err := s.numbers.Next(ctx, sequence.EntityClaim)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate claim number")
	}

	c, err := models.NewClaim(
		id.ClaimID(uuid.New()), number,
		p.ID, p.PolicyNumber,
		in.ClaimAmount, p.SumInsured, in.IncidentDate,
		requestcontext.ActorID(ctx), requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "claim number %s already exists", c.ClaimNumber)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create claim")
	}

	s.emit(ctx, audit.Event{
		EntityType:  audit.EntityClaim,
		EntityID:    c.ID.String(),
		Action:      audit.ActionCreate,
		NewValue:    c,
		PerformedBy: requestcontext.ActorID(ctx),
	})
	return c, nil
}

func (s *Service) Get(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	c, err := s.store.FindByID(ctx, claimID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Claim, error) {
	return s.store.List(ctx)
}

func (s *Service) ListByPolicy(ctx context.Context, policyNumber string) ([]*models.Claim, error) {
	p, err := s.policies.Get(ctx, policyNumber)
	if err != nil {
		return nil, err
	}
	return s.store.ListByPolicy(ctx, p.ID)
}

// Approve fixes the approved amount and moves the claim to APPROVED.
// The amount is bounded by both the claim amount and the policy's sum
// insured.
func (s *Service) Approve(ctx context.Context, claimID id.ClaimID, approvedAmount float64) (*models.Claim, error) {
	current, err := s.store.FindByID(ctx, claimID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	p, err := s.policies.GetByID(ctx, current.PolicyID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, claimID, audit.ActionApprove, models.StatusApproved,
		func(c *models.Claim) error { return c.CanApprove(approvedAmount, p.SumInsured) },
		func(c *models.Claim, now time.Time) { c.ApplyApprove(approvedAmount, now) },
	)
}

// Reject terminates the claim lifecycle.
func (s *Service) Reject(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	return s.transition(ctx, claimID, audit.ActionReject, models.StatusRejected,
		func(c *models.Claim) error { return c.CanReject() },
		func(c *models.Claim, now time.Time) { c.ApplyReject(now) },
	)
}

// Settle closes out an approved claim.
func (s *Service) Settle(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	return s.transition(ctx, claimID, audit.ActionSettle, models.StatusSettled,
		func(c *models.Claim) error { return c.CanSettle() },
		func(c *models.Claim, now time.Time) { c.ApplySettle(now) },
	)
}

// Resubmit amends a claim that is still under review.
func (s *Service) Resubmit(ctx context.Context, claimID id.ClaimID, claimAmount float64) (*models.Claim, error) {
	current, err := s.store.FindByID(ctx, claimID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	p, err := s.policies.GetByID(ctx, current.PolicyID)
	if err != nil {
		return nil, err
	}
	if claimAmount <= 0 {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "claim amount must be positive")
	}
	if claimAmount > p.SumInsured {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "claim amount cannot exceed policy sum insured")
	}

	return s.transition(ctx, claimID, audit.ActionUpdate, models.StatusInReview,
		func(c *models.Claim) error { return c.CanResubmit() },
		func(c *models.Claim, now time.Time) { c.ApplyResubmit(claimAmount, now) },
	)
}

func (s *Service) transition(ctx context.Context, claimID id.ClaimID,
	action audit.Action, target models.Status,
	validate func(*models.Claim) error,
	mutate func(*models.Claim, time.Time),
) (*models.Claim, error) {
	var oldValue models.Claim
	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, claimID,
		func(c *models.Claim) error {
			oldValue = *c
			return validate(c)
		},
		func(c *models.Claim) {
			mutate(c, now)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.ClaimTransitions.WithLabelValues(string(target)).Inc()
	}
	s.emit(ctx, audit.Event{
		EntityType:  audit.EntityClaim,
		EntityID:    updated.ID.String(),
		Action:      action,
		OldValue:    oldValue,
		NewValue:    updated,
		PerformedBy: requestcontext.ActorID(ctx),
	})
	return updated, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.recorder != nil {
		_ = s.recorder.Emit(ctx, event)
	}
}

func wrapStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "claim not found")
	}
	if dErrors.IsDomainError(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "claim store error")
}
