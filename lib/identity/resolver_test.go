package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelink-backend/models"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

type fixtureDirectory struct {
	users []dbmodels.User
	err   error
}

func (d fixtureDirectory) CandidatesFor(tokens []string) ([]dbmodels.User, error) {
	return d.users, d.err
}

func strPtr(s string) *string { return &s }

func user(id, name string, dept *string) dbmodels.User {
	u := dbmodels.User{Name: name, DepartmentID: dept}
	u.ID = id
	return u
}

func newResolver(dir Directory) impl {
	return impl{directory: dir}
}

func TestResolveSeminarUsesSubmitter(t *testing.T) {
	submitter := user("u-1", "Maria Santos", strPtr("d-1"))
	r := newResolver(fixtureDirectory{users: []dbmodels.User{user("u-2", "Somebody Else", nil)}})

	res, err := r.Resolve("Somebody Else", submitter, models.RequestTypeSeminar, false)
	require.NoError(t, err)
	assert.Equal(t, "u-1", res.RequesterID)
	assert.Equal(t, MatchExact, res.Match)
	assert.False(t, res.FellBack)
}

func TestResolveEmptyNameUsesSubmitter(t *testing.T) {
	submitter := user("u-1", "Maria Santos", strPtr("d-1"))
	r := newResolver(fixtureDirectory{})

	res, err := r.Resolve("   ", submitter, models.RequestTypeTravelOrder, false)
	require.NoError(t, err)
	assert.Equal(t, "u-1", res.RequesterID)
}

func TestResolveMatchCascade(t *testing.T) {
	submitter := user("u-sub", "Office Assistant", strPtr("d-0"))
	tests := []struct {
		name       string
		wanted     string
		candidates []dbmodels.User
		wantID     string
		wantKind   MatchKind
	}{
		{
			name:   "exact over partial",
			wanted: "Juan Cruz",
			candidates: []dbmodels.User{
				user("u-partial", "Juan Cruz Jr.", nil),
				user("u-exact", "Juan Cruz", nil),
			},
			wantID:   "u-exact",
			wantKind: MatchExact,
		},
		{
			name:   "partial over flexible",
			wanted: "Ana Reyes",
			candidates: []dbmodels.User{
				user("u-flex", "Ana Marie Reyes", nil),
				user("u-partial", "Dr. Ana Reyes", nil),
			},
			wantID:   "u-partial",
			wantKind: MatchPartial,
		},
		{
			name:   "flexible on first and last token",
			wanted: "Jose P. Rizal",
			candidates: []dbmodels.User{
				user("u-flex", "Jose Protacio Rizal", nil),
			},
			wantID:   "u-flex",
			wantKind: MatchFlexible,
		},
		{
			name:   "same kind prefers candidate with department",
			wanted: "Luis Tan",
			candidates: []dbmodels.User{
				user("u-nodept", "Engr. Luis Tan", nil),
				user("u-dept", "Prof. Luis Tan", strPtr("d-9")),
			},
			wantID:   "u-dept",
			wantKind: MatchPartial,
		},
		{
			name:   "case and whitespace insensitive",
			wanted: "  maria   SANTOS ",
			candidates: []dbmodels.User{
				user("u-1", "Maria Santos", nil),
			},
			wantID:   "u-1",
			wantKind: MatchExact,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(fixtureDirectory{users: tt.candidates})
			res, err := r.Resolve(tt.wanted, submitter, models.RequestTypeTravelOrder, false)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.RequesterID)
			assert.Equal(t, tt.wantKind, res.Match)
		})
	}
}

func TestResolveUnresolvedNonDraftFails(t *testing.T) {
	submitter := user("u-sub", "Office Assistant", nil)
	r := newResolver(fixtureDirectory{})

	_, err := r.Resolve("Nonexistent Person", submitter, models.RequestTypeTravelOrder, false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResolveUnresolvedDraftFallsBack(t *testing.T) {
	submitter := user("u-sub", "Office Assistant", strPtr("d-0"))
	r := newResolver(fixtureDirectory{})

	res, err := r.Resolve("Nonexistent Person", submitter, models.RequestTypeTravelOrder, true)
	require.NoError(t, err)
	assert.Equal(t, "u-sub", res.RequesterID)
	assert.True(t, res.FellBack)
	assert.Equal(t, MatchNone, res.Match)
}

func TestMatchKindSingleTokenNoFlexible(t *testing.T) {
	assert.Equal(t, MatchNone, matchKind("Juan", "Pedro Juanito"))
	assert.Equal(t, MatchPartial, matchKind("Juan", "Juan Dela Cruz"))
}
