package facilities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

type mockRepository struct {
	facilities map[int64]*Facility
	nextID     int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{facilities: make(map[int64]*Facility), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context) ([]Facility, error) {
	var out []Facility
	for _, f := range m.facilities {
		out = append(out, *f)
	}
	return out, nil
}

func (m *mockRepository) Find(ctx context.Context, id int64) (*Facility, error) {
	f, ok := m.facilities[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	found := *f
	return &found, nil
}

func (m *mockRepository) FindBySlug(ctx context.Context, slug string) (*Facility, error) {
	for _, f := range m.facilities {
		if f.Slug == slug {
			found := *f
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) Create(ctx context.Context, f *Facility) (int64, error) {
	for _, existing := range m.facilities {
		if existing.Name == f.Name {
			return 0, shared.ErrDuplicate
		}
	}
	stored := *f
	stored.ID = m.nextID
	m.nextID++
	m.facilities[stored.ID] = &stored
	return stored.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, f *Facility) error {
	if _, ok := m.facilities[f.ID]; !ok {
		return shared.ErrNotFound
	}
	stored := *f
	m.facilities[f.ID] = &stored
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.facilities[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.facilities, id)
	return nil
}

func TestCreateFacility(t *testing.T) {
	svc := NewService(newMockRepository())

	f, err := svc.Create(context.Background(), Input{Name: "University Teaching Hospital", Location: "Lusaka"})
	require.NoError(t, err)
	assert.Equal(t, "university-teaching-hospital", f.Slug)

	_, err = svc.Create(context.Background(), Input{Name: "University Teaching Hospital"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = svc.Create(context.Background(), Input{Name: " "})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateFacilityRegeneratesSlug(t *testing.T) {
	svc := NewService(newMockRepository())
	f, err := svc.Create(context.Background(), Input{Name: "Main Library"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), f.ID, Input{Name: "Medical Library"})
	require.NoError(t, err)
	assert.Equal(t, "medical-library", updated.Slug)

	_, err = svc.Update(context.Background(), 999, Input{Name: "Ghost"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetFacilityBySlug(t *testing.T) {
	svc := NewService(newMockRepository())
	f, err := svc.Create(context.Background(), Input{Name: "Skills Lab"})
	require.NoError(t, err)

	found, err := svc.GetBySlug(context.Background(), "skills-lab")
	require.NoError(t, err)
	assert.Equal(t, f.ID, found.ID)

	_, err = svc.GetBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
