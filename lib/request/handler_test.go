package requestprovider

import (
	"regexp"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelink-backend/models"
	requestapimodels "travelink-backend/models/api/request"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

// stubRequestStore answers GetByID from a fixed sequence of rows, one per
// call, holding the last row once the sequence is exhausted.
type stubRequestStore struct {
	recs []dbmodels.Request
	idx  int
}

func (s *stubRequestStore) GetByID(id string) (*dbmodels.Request, error) {
	rec := s.recs[s.idx]
	if s.idx < len(s.recs)-1 {
		s.idx++
	}
	return &rec, nil
}

func (s *stubRequestStore) Create(rec dbmodels.Request) (string, error) { return rec.ID, nil }

func (s *stubRequestStore) Update(id string, updMap map[string]interface{}) error { return nil }

func (s *stubRequestStore) UpdateIfStatus(id string, prior models.RequestStatus, updMap map[string]interface{}) error {
	return nil
}

func (s *stubRequestStore) Delete(id string) error { return nil }

func (s *stubRequestStore) List(filter requestapimodels.RequestFilter, userID string) ([]dbmodels.Request, int64, error) {
	return nil, 0, nil
}

func strPtr(s string) *string { return &s }

func rolePtr(r models.ApproverRole) *models.ApproverRole { return &r }

func execPtr(e models.ExecType) *models.ExecType { return &e }

func requestAt(status models.RequestStatus, deptID string) dbmodels.Request {
	rec := dbmodels.Request{
		Status:              status,
		RequesterID:         "u-requester",
		SubmitterID:         "u-submitter",
		CurrentApproverRole: approverRoleFor(status),
	}
	rec.ID = "r-1"
	if deptID != "" {
		rec.DepartmentID = &deptID
		rec.Department = &dbmodels.Department{Name: "College of Engineering"}
		rec.Department.ID = deptID
	}
	return rec
}

func actorWith(id string, mut func(u *dbmodels.User)) dbmodels.User {
	u := dbmodels.User{}
	u.ID = id
	if mut != nil {
		mut(&u)
	}
	return u
}

func TestAuthorizeHeadOwnDepartmentOnly(t *testing.T) {
	h := impl{}
	rec := requestAt(models.RequestStatusPendingHead, "d-1")

	head := actorWith("u-head", func(u *dbmodels.User) {
		u.IsHead = true
		u.DepartmentID = strPtr("d-1")
	})
	role, err := h.authorize(rec, head)
	require.NoError(t, err)
	assert.Equal(t, models.ApproverRoleHead, role)

	otherHead := actorWith("u-other", func(u *dbmodels.User) {
		u.IsHead = true
		u.DepartmentID = strPtr("d-2")
	})
	_, err = h.authorize(rec, otherHead)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestAuthorizeParentHead(t *testing.T) {
	h := impl{}
	rec := requestAt(models.RequestStatusPendingParentHead, "d-1")
	rec.Department.ParentID = strPtr("d-parent")

	parentHead := actorWith("u-parent", func(u *dbmodels.User) {
		u.IsHead = true
		u.DepartmentID = strPtr("d-parent")
	})
	role, err := h.authorize(rec, parentHead)
	require.NoError(t, err)
	assert.Equal(t, models.ApproverRoleHead, role)

	ownHead := actorWith("u-head", func(u *dbmodels.User) {
		u.IsHead = true
		u.DepartmentID = strPtr("d-1")
	})
	_, err = h.authorize(rec, ownHead)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestAuthorizeRequesterSignature(t *testing.T) {
	h := impl{}
	rec := requestAt(models.RequestStatusPendingReqSign, "")

	role, err := h.authorize(rec, actorWith("u-requester", nil))
	require.NoError(t, err)
	assert.Equal(t, models.ApproverRoleRequester, role)

	_, err = h.authorize(rec, actorWith("u-submitter", nil))
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestAuthorizePresidentMayActAtExecStage(t *testing.T) {
	h := impl{}
	rec := requestAt(models.RequestStatusPendingExec, "")

	president := actorWith("u-pres", func(u *dbmodels.User) {
		u.IsExec = true
		u.ExecType = execPtr(models.ExecTypePresident)
	})
	role, err := h.authorize(rec, president)
	require.NoError(t, err)
	assert.Equal(t, models.ApproverRolePresident, role)
}

func TestAuthorizeTargetedOverridePinsApprover(t *testing.T) {
	h := impl{}
	rec := requestAt(models.RequestStatusPendingAdmin, "")
	rec.NextApproverID = strPtr("u-chosen")
	rec.NextApproverRole = rolePtr(models.ApproverRoleAdmin)

	otherAdmin := actorWith("u-admin", func(u *dbmodels.User) { u.IsAdmin = true })
	_, err := h.authorize(rec, otherAdmin)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	chosen := actorWith("u-chosen", func(u *dbmodels.User) { u.IsAdmin = true })
	role, err := h.authorize(rec, chosen)
	require.NoError(t, err)
	assert.Equal(t, models.ApproverRoleAdmin, role)
}

func TestAuthorizeWrongRoleFails(t *testing.T) {
	h := impl{}
	rec := requestAt(models.RequestStatusPendingComptroller, "")

	hrOfficer := actorWith("u-hr", func(u *dbmodels.User) { u.IsHr = true })
	_, err := h.authorize(rec, hrOfficer)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	comptroller := actorWith("u-comp", func(u *dbmodels.User) { u.IsComptroller = true })
	role, err := h.authorize(rec, comptroller)
	require.NoError(t, err)
	assert.Equal(t, models.ApproverRoleComptroller, role)
}

func TestNextStatusOverrideResumption(t *testing.T) {
	h := impl{}
	rec := requestAt(models.RequestStatusPendingAdmin, "")
	rec.NextApproverID = strPtr("u-admin")
	rec.NextApproverRole = rolePtr(models.ApproverRoleAdmin)
	rec.HasBudget = true

	// Default policy: the ladder resumes at the next rung.
	next, err := h.nextStatus(rec, contextOf(rec))
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPendingComptroller, next)
}

func TestWithTransitionConcurrentMoveConflicts(t *testing.T) {
	// The caller observed pending_admin, but by the time it holds the
	// per-request lock another action has moved the request on. The loser
	// must see a conflict, not a transition error.
	h := impl{store: &stubRequestStore{recs: []dbmodels.Request{
		requestAt(models.RequestStatusPendingAdmin, ""),
		requestAt(models.RequestStatusPendingComptroller, ""),
	}}}
	err := h.withTransition("r-1", func(rec dbmodels.Request) error {
		t.Fatal("transition must not run after a concurrent move")
		return nil
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestWithTransitionStableStatusRuns(t *testing.T) {
	rec := requestAt(models.RequestStatusPendingAdmin, "")
	h := impl{store: &stubRequestStore{recs: []dbmodels.Request{rec, rec}}}
	ran := false
	err := h.withTransition("r-1", func(rec dbmodels.Request) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSubmitExistingDraftGuards(t *testing.T) {
	form := requestapimodels.SubmitData{
		RequestID:       "r-1",
		RequestType:     models.RequestTypeTravelOrder,
		Purpose:         "conference",
		Destination:     "Cebu",
		TravelStartDate: time.Now().Add(24 * time.Hour),
		TravelEndDate:   time.Now().Add(72 * time.Hour),
		Signature:       "sig",
	}

	t.Run("only drafts can be submitted again", func(t *testing.T) {
		h := impl{store: &stubRequestStore{recs: []dbmodels.Request{
			requestAt(models.RequestStatusPendingHead, ""),
		}}}
		_, err := h.Submit(actorWith("u-requester", nil), form)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})

	t.Run("stranger cannot submit someone else's draft", func(t *testing.T) {
		h := impl{store: &stubRequestStore{recs: []dbmodels.Request{
			requestAt(models.RequestStatusDraft, ""),
		}}}
		_, err := h.Submit(actorWith("u-stranger", nil), form)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})
}

func TestNewRequestNumberFormat(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^TO-\d{4}-\d{6}$`), newRequestNumber(models.RequestTypeTravelOrder))
	assert.Regexp(t, regexp.MustCompile(`^SA-\d{4}-\d{6}$`), newRequestNumber(models.RequestTypeSeminar))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(errors.Wrap(&pq.Error{Code: "23505"}, "create failed")))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain error")))
}

func TestApproverRoleForReturned(t *testing.T) {
	assert.Equal(t, models.ApproverRoleRequester, approverRoleFor(models.RequestStatusReturned))
	assert.Equal(t, models.ApproverRoleHr, approverRoleFor(models.RequestStatusPendingHr))
}
