// Package service orchestrates the reinsurer registry.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"cedent/internal/reinsurer/models"
	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
	audit "cedent/pkg/platform/audit"
	"cedent/pkg/platform/sentinel"
	"cedent/pkg/requestcontext"
)

// Store is the persistence contract the service depends on.
type Store interface {
	Create(ctx context.Context, r *models.Reinsurer) error
	FindByID(ctx context.Context, reinsurerID id.ReinsurerID) (*models.Reinsurer, error)
	FindByCode(ctx context.Context, code string) (*models.Reinsurer, error)
	List(ctx context.Context) ([]*models.Reinsurer, error)
	Execute(ctx context.Context, reinsurerID id.ReinsurerID,
		validate func(*models.Reinsurer) error,
		mutate func(*models.Reinsurer)) (*models.Reinsurer, error)
}

// Service manages reinsurer records.
type Service struct {
	store    Store
	recorder audit.Recorder
}

func New(store Store, recorder audit.Recorder) *Service {
	return &Service{store: store, recorder: recorder}
}

// CreateInput carries the fields of a new reinsurer.
type CreateInput struct {
	Name         string        `json:"name"`
	Code         string        `json:"code"`
	Country      string        `json:"country"`
	Rating       models.Rating `json:"rating"`
	ContactEmail string        `json:"contact_email"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Reinsurer, error) {
	r, err := models.NewReinsurer(
		id.ReinsurerID(uuid.New()),
		in.Name, in.Code, in.Country, in.Rating, in.ContactEmail,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "reinsurer code %s already exists", r.Code)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create reinsurer")
	}

	s.emit(ctx, audit.Event{
		EntityType:  audit.EntityReinsurer,
		EntityID:    r.ID.String(),
		Action:      audit.ActionCreate,
		NewValue:    r,
		PerformedBy: requestcontext.ActorID(ctx),
	})
	return r, nil
}

func (s *Service) Get(ctx context.Context, reinsurerID id.ReinsurerID) (*models.Reinsurer, error) {
	r, err := s.store.FindByID(ctx, reinsurerID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return r, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*models.Reinsurer, error) {
	r, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return r, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Reinsurer, error) {
	return s.store.List(ctx)
}

// UpdateInput carries mutable reinsurer fields; empty values are kept.
type UpdateInput struct {
	Name         string        `json:"name"`
	Country      string        `json:"country"`
	Rating       models.Rating `json:"rating"`
	ContactEmail string        `json:"contact_email"`
}

func (s *Service) Update(ctx context.Context, reinsurerID id.ReinsurerID, in UpdateInput) (*models.Reinsurer, error) {
	if in.Rating != "" && !in.Rating.Valid() {
		return nil, dErrors.Newf(dErrors.CodeStructuralInvalid, "invalid rating %q", in.Rating)
	}

	var oldValue models.Reinsurer
	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, reinsurerID,
		func(r *models.Reinsurer) error {
			oldValue = *r
			if r.Status == models.StatusRetired {
				return dErrors.New(dErrors.CodeInvalidTransition, "cannot update a retired reinsurer")
			}
			return nil
		},
		func(r *models.Reinsurer) {
			if in.Name != "" {
				r.Name = in.Name
			}
			if in.Country != "" {
				r.Country = in.Country
			}
			if in.Rating != "" {
				r.Rating = in.Rating
			}
			if in.ContactEmail != "" {
				r.ContactEmail = in.ContactEmail
			}
			r.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		EntityType:  audit.EntityReinsurer,
		EntityID:    updated.ID.String(),
		Action:      audit.ActionUpdate,
		OldValue:    oldValue,
		NewValue:    updated,
		PerformedBy: requestcontext.ActorID(ctx),
	})
	return updated, nil
}

// Retire soft-deletes a reinsurer. Existing treaty references stay valid
// for historical allocations.
func (s *Service) Retire(ctx context.Context, reinsurerID id.ReinsurerID) (*models.Reinsurer, error) {
	var oldValue models.Reinsurer
	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, reinsurerID,
		func(r *models.Reinsurer) error {
			oldValue = *r
			return r.CanRetire()
		},
		func(r *models.Reinsurer) {
			r.ApplyRetire(now)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		EntityType:  audit.EntityReinsurer,
		EntityID:    updated.ID.String(),
		Action:      audit.ActionRetire,
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
		return dErrors.New(dErrors.CodeNotFound, "reinsurer not found")
	}
	if dErrors.IsDomainError(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "reinsurer store error")
}
