package departmentprovider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	store "travelink-backend/lib/dicts/department/store"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

type fakeStore struct {
	byID   map[string]dbmodels.Department
	byName map[string]dbmodels.Department
	byCode map[string]dbmodels.Department
}

var _ store.Provider = fakeStore{}

func (s fakeStore) Create(rec dbmodels.Department) (string, error) { return rec.ID, nil }
func (s fakeStore) Update(string, map[string]interface{}) error    { return nil }
func (s fakeStore) List() ([]dbmodels.Department, error)           { return nil, nil }

func (s fakeStore) GetByID(id string) (*dbmodels.Department, error) {
	if rec, ok := s.byID[id]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (s fakeStore) GetByName(name string) (*dbmodels.Department, error) {
	if rec, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (s fakeStore) GetByCode(code string) (*dbmodels.Department, error) {
	if rec, ok := s.byCode[strings.ToLower(strings.TrimSpace(code))]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (s fakeStore) FindPartial(term string) ([]dbmodels.Department, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	result := []dbmodels.Department{}
	for _, rec := range s.byID {
		if strings.Contains(strings.ToLower(rec.Name), term) || strings.Contains(strings.ToLower(rec.Code), term) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func dept(id, name, code string) dbmodels.Department {
	d := dbmodels.Department{Name: name, Code: code}
	d.ID = id
	return d
}

func newFakeStore(depts ...dbmodels.Department) fakeStore {
	s := fakeStore{
		byID:   map[string]dbmodels.Department{},
		byName: map[string]dbmodels.Department{},
		byCode: map[string]dbmodels.Department{},
	}
	for _, d := range depts {
		s.byID[d.ID] = d
		s.byName[strings.ToLower(d.Name)] = d
		if d.Code != "" {
			s.byCode[strings.ToLower(d.Code)] = d
		}
	}
	return s
}

func strPtr(s string) *string { return &s }

func TestSplitSelection(t *testing.T) {
	name, code := SplitSelection("College of Engineering (COE)")
	assert.Equal(t, "College of Engineering", name)
	assert.Equal(t, "COE", code)

	name, code = SplitSelection("  Registrar Office  ")
	assert.Equal(t, "Registrar Office", name)
	assert.Empty(t, code)
}

func TestMatchesSelection(t *testing.T) {
	coe := dept("d-1", "College of Engineering", "COE")
	tests := []struct {
		selected string
		want     bool
	}{
		{"College of Engineering", true},
		{"college of engineering (coe)", true},
		{"COE", true},
		{"Engineering", true},
		{"College of Nursing", false},
		{"CON", false},
	}
	for _, tt := range tests {
		t.Run(tt.selected, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesSelection(coe, tt.selected))
		})
	}
}

func TestResolveRequesterDepartmentAuthoritative(t *testing.T) {
	coe := dept("d-1", "College of Engineering", "COE")
	h := impl{store: newFakeStore(coe)}

	rec, err := h.Resolve(ResolveInput{
		RequesterDepartmentID: strPtr("d-1"),
		FormSelected:          "Registrar Office",
		IsRepresentative:      false,
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "d-1", rec.ID)
}

func TestResolveRepresentativeMismatchFails(t *testing.T) {
	coe := dept("d-1", "College of Engineering", "COE")
	h := impl{store: newFakeStore(coe)}

	_, err := h.Resolve(ResolveInput{
		RequesterDepartmentID: strPtr("d-1"),
		FormSelected:          "Registrar Office (REG)",
		IsRepresentative:      true,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "Registrar Office")
	assert.Contains(t, err.Error(), "College of Engineering")
}

func TestResolveFormSelectedLookup(t *testing.T) {
	coe := dept("d-1", "College of Engineering", "COE")
	reg := dept("d-2", "Registrar Office", "REG")
	h := impl{store: newFakeStore(coe, reg)}

	tests := []struct {
		name     string
		selected string
		wantID   string
	}{
		{"exact name", "Registrar Office", "d-2"},
		{"name with code suffix", "College of Engineering (COE)", "d-1"},
		{"bare code", "REG", "d-2"},
		{"partial name", "Registrar", "d-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := h.Resolve(ResolveInput{FormSelected: tt.selected})
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, tt.wantID, rec.ID)
		})
	}
}

func TestResolveSubmitterFallbackRepresentativeOnly(t *testing.T) {
	reg := dept("d-2", "Registrar Office", "REG")
	h := impl{store: newFakeStore(reg)}

	rec, err := h.Resolve(ResolveInput{
		SubmitterDepartmentID: strPtr("d-2"),
		IsRepresentative:      true,
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "d-2", rec.ID)

	_, err = h.Resolve(ResolveInput{
		SubmitterDepartmentID: strPtr("d-2"),
		IsRepresentative:      false,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestResolveDraftMayHaveNoDepartment(t *testing.T) {
	h := impl{store: newFakeStore()}

	rec, err := h.Resolve(ResolveInput{IsDraft: true})
	require.NoError(t, err)
	assert.Nil(t, rec)
}
