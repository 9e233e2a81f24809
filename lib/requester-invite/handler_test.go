package requesterinvite

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelink-backend/models"
	requestapimodels "travelink-backend/models/api/request"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

type memStore struct {
	seq  int
	recs map[string]*dbmodels.RequesterInvitation
}

func newMemStore() *memStore {
	return &memStore{recs: map[string]*dbmodels.RequesterInvitation{}}
}

func (s *memStore) Create(rec dbmodels.RequesterInvitation) (string, error) {
	s.seq++
	rec.ID = fmt.Sprintf("inv-%d", s.seq)
	s.recs[rec.ID] = &rec
	return rec.ID, nil
}

func (s *memStore) Update(id string, updMap map[string]interface{}) error {
	rec, ok := s.recs[id]
	if !ok {
		return nil
	}
	if v, ok := updMap["status"]; ok {
		rec.Status = v.(models.InvitationStatus)
	}
	if v, ok := updMap["signature"]; ok {
		rec.Signature = v.(string)
	}
	if v, ok := updMap["confirmed_at"]; ok {
		rec.ConfirmedAt = v.(*time.Time)
	}
	return nil
}

func (s *memStore) Delete(id string) error {
	delete(s.recs, id)
	return nil
}

func (s *memStore) GetByToken(token string) (*dbmodels.RequesterInvitation, error) {
	for _, rec := range s.recs {
		if rec.Token == token {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListByRequest(requestID string) ([]dbmodels.RequesterInvitation, error) {
	list := []dbmodels.RequesterInvitation{}
	for _, rec := range s.recs {
		if rec.RequestID == requestID {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (s *memStore) ListExpiredPending(now time.Time, limit int) ([]dbmodels.RequesterInvitation, error) {
	list := []dbmodels.RequesterInvitation{}
	for _, rec := range s.recs {
		if rec.Status == models.InvitationStatusPending && rec.IsExpired(now) && len(list) < limit {
			list = append(list, *rec)
		}
	}
	return list, nil
}

type memUsers struct {
	byEmail map[string]dbmodels.User
}

func (s memUsers) GetByID(string) (*dbmodels.User, error)                          { return nil, nil }
func (s memUsers) CandidatesFor([]string) ([]dbmodels.User, error)                 { return nil, nil }
func (s memUsers) GetDepartmentHead(string) (*dbmodels.User, error)                { return nil, nil }
func (s memUsers) GetExec(models.ExecType) (*dbmodels.User, error)                 { return nil, nil }
func (s memUsers) ListByApproverRole(models.ApproverRole) ([]dbmodels.User, error) { return nil, nil }
func (s memUsers) Update(string, map[string]interface{}) error                     { return nil }

func (s memUsers) GetByEmail(email string) (*dbmodels.User, error) {
	if rec, ok := s.byEmail[normalizeEmail(email)]; ok {
		return &rec, nil
	}
	return nil, nil
}

func newCoordinator(st *memStore) impl {
	return impl{store: st, usersStore: memUsers{byEmail: map[string]dbmodels.User{}}}
}

func submitterUser(id, name, email string) dbmodels.User {
	u := dbmodels.User{Name: name, Email: email, Signature: "sig-" + id}
	u.ID = id
	return u
}

func TestReconcileCreatesAndDeletes(t *testing.T) {
	st := newMemStore()
	c := newCoordinator(st)
	submitter := submitterUser("u-sub", "Maria Santos", "maria@school.edu")

	result, err := c.Reconcile("r-1", submitter, []requestapimodels.NamedRequester{
		{Name: "Juan Cruz", Email: "juan@school.edu"},
		{Name: "Ana Reyes", Email: "ana@school.edu"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Created, 2)
	assert.Empty(t, result.Deleted)

	// Drop one, add one: only the delta changes.
	result, err = c.Reconcile("r-1", submitter, []requestapimodels.NamedRequester{
		{Name: "Juan Cruz", Email: "juan@school.edu"},
		{Name: "Luis Tan", Email: "luis@school.edu"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"luis@school.edu"}, result.Created)
	assert.Equal(t, []string{"ana@school.edu"}, result.Deleted)
	assert.Equal(t, 1, result.Kept)

	list, err := st.ListByRequest("r-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestReconcileAutoConfirmsSubmitter(t *testing.T) {
	st := newMemStore()
	c := newCoordinator(st)
	submitter := submitterUser("u-sub", "Maria Santos", "maria@school.edu")

	result, err := c.Reconcile("r-1", submitter, []requestapimodels.NamedRequester{
		{Name: "Maria Santos", Email: "Maria@School.edu"},
		{Name: "Juan Cruz", Email: "juan@school.edu"},
	})
	require.NoError(t, err)
	assert.True(t, result.AutoConfirmed)

	list, _ := st.ListByRequest("r-1")
	var mariaStatus models.InvitationStatus
	for _, rec := range list {
		if rec.Email == "maria@school.edu" {
			mariaStatus = rec.Status
			assert.Equal(t, submitter.Signature, rec.Signature)
		}
	}
	assert.Equal(t, models.InvitationStatusConfirmed, mariaStatus)
}

func TestReconcileRejectsDuplicateEmails(t *testing.T) {
	c := newCoordinator(newMemStore())
	submitter := submitterUser("u-sub", "Maria Santos", "maria@school.edu")

	_, err := c.Reconcile("r-1", submitter, []requestapimodels.NamedRequester{
		{Name: "Juan Cruz", Email: "juan@school.edu"},
		{Name: "J. Cruz", Email: "JUAN@school.edu"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCanFinalize(t *testing.T) {
	st := newMemStore()
	c := newCoordinator(st)
	submitter := submitterUser("u-sub", "Maria Santos", "maria@school.edu")

	result, err := c.Reconcile("r-1", submitter, []requestapimodels.NamedRequester{
		{Name: "Maria Santos", Email: "maria@school.edu"},
		{Name: "Juan Cruz", Email: "juan@school.edu"},
	})
	require.NoError(t, err)

	// Juan was invited by this very submission, so he has had no chance to
	// confirm yet; the submitter's entry is auto-confirmed.
	err = c.CanFinalize("r-1", result.Created)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "1 requester(s) have not been confirmed")

	// An invitation carried over from an earlier draft edit still within its
	// validity window does not block.
	assert.NoError(t, c.CanFinalize("r-1", nil))
}

func TestCanFinalizeBlocksDeclinedAndExpired(t *testing.T) {
	st := newMemStore()
	c := newCoordinator(st)
	st.Create(dbmodels.RequesterInvitation{
		RequestID: "r-1",
		Email:     "juan@school.edu",
		Status:    models.InvitationStatusPending,
		Token:     "tok-expired",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	st.Create(dbmodels.RequesterInvitation{
		RequestID: "r-1",
		Email:     "ana@school.edu",
		Status:    models.InvitationStatusDeclined,
		Token:     "tok-declined",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	st.Create(dbmodels.RequesterInvitation{
		RequestID: "r-1",
		Email:     "luis@school.edu",
		Status:    models.InvitationStatusConfirmed,
		Token:     "tok-ok",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})

	err := c.CanFinalize("r-1", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "2 requester(s) have not been confirmed")
}

func seedInvitation(st *memStore, status models.InvitationStatus, expiresAt time.Time) string {
	token := "tok-" + string(status)
	st.Create(dbmodels.RequesterInvitation{
		RequestID: "r-1",
		Email:     "juan@school.edu",
		Status:    status,
		Token:     token,
		ExpiresAt: expiresAt,
	})
	return token
}

func TestRedeemPendingConfirms(t *testing.T) {
	st := newMemStore()
	c := newCoordinator(st)
	token := seedInvitation(st, models.InvitationStatusPending, time.Now().Add(24*time.Hour))

	view, err := c.Redeem(requestapimodels.RedeemData{Token: token, Signature: "juan-sig"})
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusConfirmed, view.Status)
}

func TestRedeemConfirmedIsIdempotent(t *testing.T) {
	st := newMemStore()
	c := newCoordinator(st)
	token := seedInvitation(st, models.InvitationStatusPending, time.Now().Add(24*time.Hour))

	first, err := c.Redeem(requestapimodels.RedeemData{Token: token, Signature: "juan-sig"})
	require.NoError(t, err)
	second, err := c.Redeem(requestapimodels.RedeemData{Token: token, Signature: "other-sig"})
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)

	rec, _ := st.GetByToken(token)
	assert.Equal(t, "juan-sig", rec.Signature)
}

func TestRedeemExpiredFailsEvenIfConfirmed(t *testing.T) {
	st := newMemStore()
	c := newCoordinator(st)
	token := seedInvitation(st, models.InvitationStatusConfirmed, time.Now().Add(-time.Hour))

	_, err := c.Redeem(requestapimodels.RedeemData{Token: token, Signature: "sig"})
	assert.ErrorIs(t, err, apperrors.ErrInviteExpired)
}

func TestRedeemDeclinedFails(t *testing.T) {
	st := newMemStore()
	c := newCoordinator(st)
	token := seedInvitation(st, models.InvitationStatusDeclined, time.Now().Add(24*time.Hour))

	_, err := c.Redeem(requestapimodels.RedeemData{Token: token, Signature: "sig"})
	assert.ErrorIs(t, err, apperrors.ErrInviteDeclined)
}

func TestRedeemUnknownTokenFails(t *testing.T) {
	c := newCoordinator(newMemStore())

	_, err := c.Redeem(requestapimodels.RedeemData{Token: "nope", Signature: "sig"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDecline(t *testing.T) {
	st := newMemStore()
	c := newCoordinator(st)
	token := seedInvitation(st, models.InvitationStatusPending, time.Now().Add(24*time.Hour))

	require.NoError(t, c.Decline(token))
	// Declining twice is a no-op.
	require.NoError(t, c.Decline(token))

	_, err := c.Redeem(requestapimodels.RedeemData{Token: token, Signature: "sig"})
	assert.ErrorIs(t, err, apperrors.ErrInviteDeclined)
}

func TestDeclineConfirmedConflicts(t *testing.T) {
	st := newMemStore()
	c := newCoordinator(st)
	token := seedInvitation(st, models.InvitationStatusConfirmed, time.Now().Add(24*time.Hour))

	err := c.Decline(token)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
