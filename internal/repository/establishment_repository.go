package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

const establishmentColumns = `id, specialite_id, name, address, contact_email, contact_phone, created_at, updated_at`

// EstablishmentRepository provides persistence for partner training sites.
type EstablishmentRepository struct {
	db *sqlx.DB
}

// NewEstablishmentRepository creates the repository.
func NewEstablishmentRepository(db *sqlx.DB) *EstablishmentRepository {
	return &EstablishmentRepository{db: db}
}

// List returns establishments, optionally scoped to one speciality.
func (r *EstablishmentRepository) List(ctx context.Context, specialityID string) ([]models.Establishment, error) {
	query := fmt.Sprintf("SELECT %s FROM establishments", establishmentColumns)
	var args []interface{}
	if specialityID != "" {
		query += " WHERE specialite_id = $1"
		args = append(args, specialityID)
	}
	query += " ORDER BY name->>'fr' ASC"
	var establishments []models.Establishment
	if err := r.db.SelectContext(ctx, &establishments, query, args...); err != nil {
		return nil, fmt.Errorf("list establishments: %w", err)
	}
	return establishments, nil
}

// FindByID loads an establishment by identifier.
func (r *EstablishmentRepository) FindByID(ctx context.Context, id string) (*models.Establishment, error) {
	query := fmt.Sprintf("SELECT %s FROM establishments WHERE id = $1", establishmentColumns)
	var establishment models.Establishment
	if err := r.db.GetContext(ctx, &establishment, query, id); err != nil {
		return nil, err
	}
	return &establishment, nil
}

// Create inserts a new establishment.
func (r *EstablishmentRepository) Create(ctx context.Context, establishment *models.Establishment) error {
	if establishment.ID == "" {
		establishment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if establishment.CreatedAt.IsZero() {
		establishment.CreatedAt = now
	}
	establishment.UpdatedAt = now
	const query = `INSERT INTO establishments (id, specialite_id, name, address, contact_email, contact_phone, created_at, updated_at)
VALUES (:id, :specialite_id, :name, :address, :contact_email, :contact_phone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, establishment); err != nil {
		return fmt.Errorf("create establishment: %w", err)
	}
	return nil
}

// Update modifies an existing establishment.
func (r *EstablishmentRepository) Update(ctx context.Context, establishment *models.Establishment) error {
	establishment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE establishments SET specialite_id = :specialite_id, name = :name, address = :address,
contact_email = :contact_email, contact_phone = :contact_phone, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, establishment); err != nil {
		return fmt.Errorf("update establishment: %w", err)
	}
	return nil
}

// Delete removes an establishment permanently.
func (r *EstablishmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM establishments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete establishment: %w", err)
	}
	return nil
}
