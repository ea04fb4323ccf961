// Package service orchestrates the policy lifecycle.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cedent/internal/platform/metrics"
	"cedent/internal/policy/models"
	"cedent/internal/sequence"
	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
	audit "cedent/pkg/platform/audit"
	"cedent/pkg/platform/sentinel"
	"cedent/pkg/requestcontext"
)

// Store is the persistence contract the service depends on.
type Store interface {
	Create(ctx context.Context, p *models.Policy) error
	FindByID(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
	FindByNumber(ctx context.Context, policyNumber string) (*models.Policy, error)
	List(ctx context.Context) ([]*models.Policy, error)
	Execute(ctx context.Context, policyNumber string,
		validate func(*models.Policy) error,
		mutate func(*models.Policy)) (*models.Policy, error)
}

// AllocationEngine runs risk allocation for a newly activated policy.
// Benign outcomes (no applicable treaty, nothing to cede) come back as
// coded errors and do not fail the activation.
type AllocationEngine interface {
	Allocate(ctx context.Context, p *models.Policy) error
}

// Service manages policies from draft through activation.
type Service struct {
	store    Store
	numbers  sequence.Allocator
	engine   AllocationEngine
	recorder audit.Recorder
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func New(store Store, numbers sequence.Allocator, engine AllocationEngine,
	recorder audit.Recorder, m *metrics.Metrics, log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, numbers: numbers, engine: engine,
		recorder: recorder, metrics: m, log: log}
}

// CreateInput carries the fields of a new policy draft.
type CreateInput struct {
	InsuredName    string             `json:"insured_name"`
	InsuredType    models.InsuredType `json:"insured_type"`
	LineOfBusiness id.LineOfBusiness  `json:"line_of_business"`
	SumInsured     float64            `json:"sum_insured"`
	Premium        float64            `json:"premium"`
	RetentionLimit float64            `json:"retention_limit"`
	EffectiveFrom  time.Time          `json:"effective_from"`
	EffectiveTo    time.Time          `json:"effective_to"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Policy, error) {
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "policy creation requires an authenticated actor")
	}

	number, err := s.numbers.Next(ctx, sequence.EntityPolicy)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate policy number")
	}

	p, err := models.NewPolicy(
		id.PolicyID(uuid.New()), number,
		in.InsuredName, in.InsuredType, in.LineOfBusiness,
		in.SumInsured, in.Premium, in.RetentionLimit,
		in.EffectiveFrom, in.EffectiveTo,
		actor, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "policy number %s already exists", p.PolicyNumber)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create policy")
	}

	s.emit(ctx, audit.Event{
		EntityType:  audit.EntityPolicy,
		EntityID:    p.ID.String(),
		Action:      audit.ActionCreate,
		NewValue:    p,
		PerformedBy: actor,
	})
	return p, nil
}

func (s *Service) Get(ctx context.Context, policyNumber string) (*models.Policy, error) {
	p, err := s.store.FindByNumber(ctx, policyNumber)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	p, err := s.store.FindByID(ctx, policyID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Policy, error) {
	return s.store.List(ctx)
}

// Submit moves a draft into the underwriting queue.
func (s *Service) Submit(ctx context.Context, policyNumber string) (*models.Policy, error) {
	return s.transition(ctx, policyNumber, audit.ActionSubmit, models.StatusSubmitted,
		func(p *models.Policy) error { return p.CanSubmit() },
		func(p *models.Policy, now time.Time) { p.ApplySubmit(now) },
	)
}

// StartReview marks a submitted policy as under underwriting review.
func (s *Service) StartReview(ctx context.Context, policyNumber string) (*models.Policy, error) {
	return s.transition(ctx, policyNumber, audit.ActionUpdate, models.StatusUnderwritingReview,
		func(p *models.Policy) error { return p.CanStartReview() },
		func(p *models.Policy, now time.Time) { p.ApplyStartReview(now) },
	)
}

// Approve records the underwriting decision. The policy is not on risk
// until it is activated.
func (s *Service) Approve(ctx context.Context, policyNumber string) (*models.Policy, error) {
	actor := requestcontext.ActorID(ctx)
	return s.transition(ctx, policyNumber, audit.ActionApprove, models.StatusApproved,
		func(p *models.Policy) error { return p.CanApprove() },
		func(p *models.Policy, now time.Time) { p.ApplyApprove(actor, now) },
	)
}

// Reject terminates the lifecycle with a reason.
func (s *Service) Reject(ctx context.Context, policyNumber, reason string) (*models.Policy, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rejection reason is required")
	}
	return s.transition(ctx, policyNumber, audit.ActionReject, models.StatusRejected,
		func(p *models.Policy) error { return p.CanReject() },
		func(p *models.Policy, now time.Time) { p.ApplyReject(reason, now) },
	)
}

// Activate puts an approved policy on risk and triggers risk allocation.
// Allocation outcomes never roll back the activation; benign ones are
// logged and surfaced through the allocation endpoints.
func (s *Service) Activate(ctx context.Context, policyNumber string) (*models.Policy, error) {
	p, err := s.transition(ctx, policyNumber, audit.ActionActivate, models.StatusActive,
		func(p *models.Policy) error { return p.CanActivate() },
		func(p *models.Policy, now time.Time) { p.ApplyActivate(now) },
	)
	if err != nil {
		return nil, err
	}

	if s.engine != nil {
		if err := s.engine.Allocate(ctx, p); err != nil {
			if dErrors.IsBenign(err) {
				s.log.InfoContext(ctx, "activation finished without cession",
					"policy_number", p.PolicyNumber, "reason", dErrors.MessageOf(err))
			} else {
				s.log.ErrorContext(ctx, "risk allocation failed after activation",
					"policy_number", p.PolicyNumber, "error", err)
			}
		}
	}
	return p, nil
}

func (s *Service) transition(ctx context.Context, policyNumber string,
	action audit.Action, target models.Status,
	validate func(*models.Policy) error,
	mutate func(*models.Policy, time.Time),
) (*models.Policy, error) {
	var oldValue models.Policy
	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, policyNumber,
		func(p *models.Policy) error {
			oldValue = *p
			return validate(p)
		},
		func(p *models.Policy) {
			mutate(p, now)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.PolicyTransitions.WithLabelValues(string(target)).Inc()
	}
	s.emit(ctx, audit.Event{
		EntityType:  audit.EntityPolicy,
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
		return dErrors.New(dErrors.CodeNotFound, "policy not found")
	}
	if dErrors.IsDomainError(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "policy store error")
}
