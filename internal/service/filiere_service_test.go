package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type mockFiliereRepo struct {
	items     map[string]*models.Filiere
	slugIndex map[string]string
	deleted   []string
}

func newMockFiliereRepo() *mockFiliereRepo {
	return &mockFiliereRepo{items: map[string]*models.Filiere{}, slugIndex: map[string]string{}}
}

func (m *mockFiliereRepo) List(ctx context.Context, filter models.FiliereFilter) ([]models.Filiere, int, error) {
	out := make([]models.Filiere, 0, len(m.items))
	for _, f := range m.items {
		out = append(out, *f)
	}
	return out, len(out), nil
}

func (m *mockFiliereRepo) FindByID(ctx context.Context, id string) (*models.Filiere, error) {
	if f, ok := m.items[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFiliereRepo) ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error) {
	owner, ok := m.slugIndex[slug]
	return ok && owner != excludeID, nil
}

func (m *mockFiliereRepo) Create(ctx context.Context, filiere *models.Filiere) error {
	if filiere.ID == "" {
		filiere.ID = "generated"
	}
	cp := *filiere
	m.items[filiere.ID] = &cp
	m.slugIndex[filiere.Slug] = filiere.ID
	return nil
}

func (m *mockFiliereRepo) Update(ctx context.Context, filiere *models.Filiere) error {
	cp := *filiere
	m.items[filiere.ID] = &cp
	m.slugIndex[filiere.Slug] = filiere.ID
	return nil
}

func (m *mockFiliereRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Soins Infirmiers":        "soins-infirmiers",
		"Sage-Femme":              "sage-femme",
		"Préparation en Pharmacie": "preparation-en-pharmacie",
		"  Kinésithérapie  ":      "kinesitherapie",
		"Santé & Hygiène":         "sante-hygiene",
	}
	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), "input %q", input)
	}
}

func TestFiliereServiceCreateDerivesSlug(t *testing.T) {
	repo := newMockFiliereRepo()
	svc := NewFiliereService(repo, nil, nil)

	filiere, err := svc.Create(context.Background(), CreateFiliereRequest{
		Name: models.LocalizedText{Fr: "Soins Infirmiers"},
	})
	require.NoError(t, err)
	assert.Equal(t, "soins-infirmiers", filiere.Slug)
	assert.True(t, filiere.IsActive)
}

func TestFiliereServiceCreateDuplicateSlug(t *testing.T) {
	repo := newMockFiliereRepo()
	repo.slugIndex["soins-infirmiers"] = "other"
	svc := NewFiliereService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateFiliereRequest{
		Name: models.LocalizedText{Fr: "Soins Infirmiers"},
	})
	require.Error(t, err)
	assert.Equal(t, "DUPLICATE_SLUG", appErrors.FromError(err).Code)
}

func TestFiliereServiceUpdateKeepsOwnSlug(t *testing.T) {
	repo := newMockFiliereRepo()
	repo.items["f1"] = &models.Filiere{ID: "f1", Slug: "soins-infirmiers", IsActive: true}
	repo.slugIndex["soins-infirmiers"] = "f1"
	svc := NewFiliereService(repo, nil, nil)

	// Re-saving with the same derived slug is not a conflict.
	updated, err := svc.Update(context.Background(), "f1", UpdateFiliereRequest{
		Name: models.LocalizedText{Fr: "Soins Infirmiers"},
	})
	require.NoError(t, err)
	assert.Equal(t, "soins-infirmiers", updated.Slug)
}

func TestFiliereServiceGetNotFound(t *testing.T) {
	svc := NewFiliereService(newMockFiliereRepo(), nil, nil)
	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}
