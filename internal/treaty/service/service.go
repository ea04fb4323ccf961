// Package service orchestrates the treaty registry.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	reinsurermodels "cedent/internal/reinsurer/models"
	"cedent/internal/treaty/models"
	"cedent/internal/treaty/store"
	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
	audit "cedent/pkg/platform/audit"
	"cedent/pkg/platform/sentinel"
	"cedent/pkg/requestcontext"
)

// ReinsurerLookup resolves reinsurer codes the way the registry API
// accepts them (codes in requests, IDs in storage).
type ReinsurerLookup interface {
	GetByCode(ctx context.Context, code string) (*reinsurermodels.Reinsurer, error)
}

// Service manages treaty records.
type Service struct {
	store      store.Store
	reinsurers ReinsurerLookup
	recorder   audit.Recorder
}

func New(s store.Store, reinsurers ReinsurerLookup, recorder audit.Recorder) *Service {
	return &Service{store: s, reinsurers: reinsurers, recorder: recorder}
}

// CreateInput carries the fields of a new treaty. ReinsurerCode is
// resolved to the reinsurer reference.
type CreateInput struct {
	Name            string              `json:"name"`
	Type            models.Type         `json:"type"`
	ReinsurerCode   string              `json:"reinsurer_code"`
	SharePercentage float64             `json:"share_percentage"`
	RetentionLimit  float64             `json:"retention_limit"`
	TreatyLimit     float64             `json:"treaty_limit"`
	ApplicableLOBs  []id.LineOfBusiness `json:"applicable_lobs"`
	EffectiveFrom   time.Time           `json:"effective_from"`
	EffectiveTo     time.Time           `json:"effective_to"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Treaty, error) {
	reinsurer, err := s.reinsurers.GetByCode(ctx, in.ReinsurerCode)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, dErrors.Newf(dErrors.CodeStructuralInvalid, "unknown reinsurer code %q", in.ReinsurerCode)
		}
		return nil, err
	}
	if !reinsurer.IsActive() {
		return nil, dErrors.Newf(dErrors.CodeStructuralInvalid, "reinsurer %s is not active", reinsurer.Code)
	}

	t, err := models.NewTreaty(
		id.TreatyID(uuid.New()), in.Name, in.Type, reinsurer.ID,
		in.SharePercentage, in.RetentionLimit, in.TreatyLimit,
		in.ApplicableLOBs, in.EffectiveFrom, in.EffectiveTo,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "treaty already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create treaty")
	}

	s.emit(ctx, audit.Event{
		EntityType:  audit.EntityTreaty,
		EntityID:    t.ID.String(),
		Action:      audit.ActionCreate,
		NewValue:    t,
		PerformedBy: requestcontext.ActorID(ctx),
	})
	return t, nil
}

func (s *Service) Get(ctx context.Context, treatyID id.TreatyID) (*models.Treaty, error) {
	t, err := s.store.FindByID(ctx, treatyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "treaty not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "treaty store error")
	}
	return t, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Treaty, error) {
	return s.store.List(ctx, requestcontext.Now(ctx))
}

// UpdateInput carries mutable treaty fields. Zero values are kept, except
// the effective range which is always validated when either end changes.
type UpdateInput struct {
	Name           string    `json:"name"`
	TreatyLimit    float64   `json:"treaty_limit"`
	EffectiveTo    time.Time `json:"effective_to"`
}

func (s *Service) Update(ctx context.Context, treatyID id.TreatyID, in UpdateInput) (*models.Treaty, error) {
	t, err := s.Get(ctx, treatyID)
	if err != nil {
		return nil, err
	}
	oldValue := *t

	if in.Name != "" {
		t.Name = in.Name
	}
	if in.TreatyLimit != 0 {
		if in.TreatyLimit < 0 {
			return nil, dErrors.New(dErrors.CodeStructuralInvalid, "treaty limit must be > 0")
		}
		t.TreatyLimit = in.TreatyLimit
	}
	if !in.EffectiveTo.IsZero() {
		if !t.EffectiveFrom.Before(in.EffectiveTo) {
			return nil, dErrors.New(dErrors.CodeStructuralInvalid, "effective range is inverted")
		}
		t.EffectiveTo = in.EffectiveTo
	}
	now := requestcontext.Now(ctx)
	t.Status = t.EffectiveStatus(now)
	t.UpdatedAt = now

	if err := s.store.Update(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "treaty not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update treaty")
	}

	s.emit(ctx, audit.Event{
		EntityType:  audit.EntityTreaty,
		EntityID:    t.ID.String(),
		Action:      audit.ActionUpdate,
		OldValue:    oldValue,
		NewValue:    t,
		PerformedBy: requestcontext.ActorID(ctx),
	})
	return t, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.recorder != nil {
		_ = s.recorder.Emit(ctx, event)
	}
}
