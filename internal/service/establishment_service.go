package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type establishmentRepository interface {
	List(ctx context.Context, specialityID string) ([]models.Establishment, error)
	FindByID(ctx context.Context, id string) (*models.Establishment, error)
	Create(ctx context.Context, establishment *models.Establishment) error
	Update(ctx context.Context, establishment *models.Establishment) error
	Delete(ctx context.Context, id string) error
}

type establishmentSpecialityReader interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// SaveEstablishmentRequest captures the create and update payload.
type SaveEstablishmentRequest struct {
	SpecialityID string               `json:"specialite_id" validate:"required,uuid4"`
	Name         models.LocalizedText `json:"name" validate:"required"`
	Address      *string              `json:"address"`
	ContactEmail *string              `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string              `json:"contact_phone"`
}

// EstablishmentService manages partner training sites.
type EstablishmentService struct {
	repo         establishmentRepository
	specialities establishmentSpecialityReader
	validator    *validator.Validate
}

// NewEstablishmentService constructs EstablishmentService.
func NewEstablishmentService(repo establishmentRepository, specialities establishmentSpecialityReader, validate *validator.Validate) *EstablishmentService {
	if validate == nil {
		validate = NewValidator()
	}
	return &EstablishmentService{repo: repo, specialities: specialities, validator: validate}
}

// List returns establishments, optionally scoped to one speciality.
func (s *EstablishmentService) List(ctx context.Context, specialityID string) ([]models.Establishment, error) {
	establishments, err := s.repo.List(ctx, specialityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list establishments")
	}
	return establishments, nil
}

// Get returns one establishment.
func (s *EstablishmentService) Get(ctx context.Context, id string) (*models.Establishment, error) {
	establishment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "establishment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load establishment")
	}
	return establishment, nil
}

// Create adds an establishment to a speciality.
func (s *EstablishmentService) Create(ctx context.Context, req SaveEstablishmentRequest) (*models.Establishment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid establishment payload")
	}
	if err := s.ensureSpeciality(ctx, req.SpecialityID); err != nil {
		return nil, err
	}

	establishment := &models.Establishment{
		SpecialityID: req.SpecialityID,
		Name:         req.Name,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}
	if err := s.repo.Create(ctx, establishment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create establishment")
	}
	return establishment, nil
}

// Update modifies an establishment.
func (s *EstablishmentService) Update(ctx context.Context, id string, req SaveEstablishmentRequest) (*models.Establishment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid establishment payload")
	}

	establishment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.SpecialityID != establishment.SpecialityID {
		if err := s.ensureSpeciality(ctx, req.SpecialityID); err != nil {
			return nil, err
		}
	}

	establishment.SpecialityID = req.SpecialityID
	establishment.Name = req.Name
	establishment.Address = req.Address
	establishment.ContactEmail = req.ContactEmail
	establishment.ContactPhone = req.ContactPhone
	if err := s.repo.Update(ctx, establishment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update establishment")
	}
	return establishment, nil
}

// Delete removes an establishment.
func (s *EstablishmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete establishment")
	}
	return nil
}

func (s *EstablishmentService) ensureSpeciality(ctx context.Context, id string) error {
	exists, err := s.specialities.Exists(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check speciality")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "speciality not found")
	}
	return nil
}
