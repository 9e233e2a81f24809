package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"travelink-backend/models"
	"travelink-backend/models/apperrors"
)

func TestInitialStatus(t *testing.T) {
	cases := []struct {
		name  string
		draft bool
		ctx   Context
		want  models.RequestStatus
	}{
		{name: "draft stays draft", draft: true, ctx: Context{IsRepresentative: true}, want: models.RequestStatusDraft},
		{name: "representative non-head waits for requester signature", ctx: Context{IsRepresentative: true}, want: models.RequestStatusPendingReqSign},
		{name: "representative head enters at head stage", ctx: Context{IsRepresentative: true, RequesterIsHead: true}, want: models.RequestStatusPendingHead},
		{name: "own submission by head", ctx: Context{RequesterIsHead: true}, want: models.RequestStatusPendingHead},
		{name: "own submission by faculty", ctx: Context{}, want: models.RequestStatusPendingHead},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, InitialStatus(tc.draft, tc.ctx))
		})
	}
}

func TestDefaultLadder(t *testing.T) {
	// Without explicit return/skip the ladder must be followed strictly.
	ctx := Context{HasBudget: true, RequiresPresident: true}
	order := []models.RequestStatus{
		models.RequestStatusPendingHead,
		models.RequestStatusPendingAdmin,
		models.RequestStatusPendingComptroller,
		models.RequestStatusPendingHr,
		models.RequestStatusPendingExec,
		models.RequestStatusPendingPresident,
		models.RequestStatusApproved,
	}
	current := order[0]
	for _, want := range order[1:] {
		next, err := Next(current, ctx)
		require.NoError(t, err)
		require.Equal(t, want, next)
		current = next
	}
}

func TestNextConditionalRungs(t *testing.T) {
	t.Run("no budget skips comptroller", func(t *testing.T) {
		next, err := Next(models.RequestStatusPendingAdmin, Context{HasBudget: false})
		require.NoError(t, err)
		require.Equal(t, models.RequestStatusPendingHr, next)
	})
	t.Run("parent department inserts parent head", func(t *testing.T) {
		next, err := Next(models.RequestStatusPendingHead, Context{HasParentDepartment: true})
		require.NoError(t, err)
		require.Equal(t, models.RequestStatusPendingParentHead, next)

		next, err = Next(next, Context{HasParentDepartment: true})
		require.NoError(t, err)
		require.Equal(t, models.RequestStatusPendingAdmin, next)
	})
	t.Run("no president requirement approves after exec", func(t *testing.T) {
		next, err := Next(models.RequestStatusPendingExec, Context{})
		require.NoError(t, err)
		require.Equal(t, models.RequestStatusApproved, next)
	})
	t.Run("requester signature leads to head", func(t *testing.T) {
		next, err := Next(models.RequestStatusPendingReqSign, Context{IsRepresentative: true})
		require.NoError(t, err)
		require.Equal(t, models.RequestStatusPendingHead, next)
	})
}

func TestNextTerminal(t *testing.T) {
	for _, status := range []models.RequestStatus{
		models.RequestStatusApproved,
		models.RequestStatusRejected,
		models.RequestStatusCancelled,
	} {
		_, err := Next(status, Context{})
		require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	}
}

func TestApplyOverride(t *testing.T) {
	t.Run("head routes directly to a chosen admin", func(t *testing.T) {
		status, key, err := ApplyOverride(models.RequestStatusPendingHead, Override{ApproverID: "admin-42", Role: models.ApproverRoleAdmin})
		require.NoError(t, err)
		require.Equal(t, models.RequestStatusPendingAdmin, status)
		require.Equal(t, "next_admin_id", key)
	})
	t.Run("head routes to president", func(t *testing.T) {
		status, key, err := ApplyOverride(models.RequestStatusPendingHead, Override{ApproverID: "p-1", Role: models.ApproverRolePresident})
		require.NoError(t, err)
		require.Equal(t, models.RequestStatusPendingPresident, status)
		require.Equal(t, "next_president_id", key)
	})
	t.Run("head cannot route to hr", func(t *testing.T) {
		_, _, err := ApplyOverride(models.RequestStatusPendingHead, Override{ApproverID: "hr-1", Role: models.ApproverRoleHr})
		require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})
	t.Run("comptroller stage has no override", func(t *testing.T) {
		_, _, err := ApplyOverride(models.RequestStatusPendingComptroller, Override{ApproverID: "x", Role: models.ApproverRoleAdmin})
		require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})
	t.Run("incomplete override is a validation error", func(t *testing.T) {
		_, _, err := ApplyOverride(models.RequestStatusPendingHead, Override{ApproverID: "x"})
		require.True(t, apperrors.IsValidation(err))
	})
}

func TestCanAct(t *testing.T) {
	require.True(t, CanAct(models.ApproverRoleHead, models.RequestStatusPendingHead))
	require.True(t, CanAct(models.ApproverRoleHead, models.RequestStatusPendingParentHead))
	require.True(t, CanAct(models.ApproverRoleRequester, models.RequestStatusPendingReqSign))
	require.True(t, CanAct(models.ApproverRolePresident, models.RequestStatusPendingExec))
	require.False(t, CanAct(models.ApproverRoleAdmin, models.RequestStatusPendingHead))
	require.False(t, CanAct(models.ApproverRoleVp, models.RequestStatusPendingPresident))
	require.False(t, CanAct(models.ApproverRoleHead, models.RequestStatusApproved))
}

func TestSkip(t *testing.T) {
	next, err := Skip(models.RequestStatusPendingComptroller, Context{HasBudget: true})
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusPendingHr, next)

	next, err = Skip(models.RequestStatusPendingAdmin, Context{})
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusPendingHr, next)

	_, err = Skip(models.RequestStatusPendingHr, Context{})
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestResumeStatus(t *testing.T) {
	ctx := Context{HasBudget: true}
	cases := []struct {
		name   string
		from   models.RequestStatus
		reason models.ReturnReason
		ctx    Context
		want   models.RequestStatus
	}{
		{name: "budget change from comptroller resumes at admin", from: models.RequestStatusPendingComptroller, reason: models.ReturnReasonBudgetChange, ctx: ctx, want: models.RequestStatusPendingAdmin},
		{name: "budget change from hr resumes at admin", from: models.RequestStatusPendingHr, reason: models.ReturnReasonBudgetChange, ctx: ctx, want: models.RequestStatusPendingAdmin},
		{name: "driver change from exec resumes at admin", from: models.RequestStatusPendingExec, reason: models.ReturnReasonDriverChange, ctx: ctx, want: models.RequestStatusPendingAdmin},
		{name: "details change resumes at head", from: models.RequestStatusPendingHr, reason: models.ReturnReasonDetailsChange, ctx: ctx, want: models.RequestStatusPendingHead},
		{name: "other resumes one stage back", from: models.RequestStatusPendingHr, reason: models.ReturnReasonOther, ctx: ctx, want: models.RequestStatusPendingComptroller},
		{name: "other skips a comptroller rung that does not apply", from: models.RequestStatusPendingHr, reason: models.ReturnReasonOther, ctx: Context{}, want: models.RequestStatusPendingAdmin},
		{name: "budget change from admin clamps to head when no parent", from: models.RequestStatusPendingAdmin, reason: models.ReturnReasonBudgetChange, ctx: ctx, want: models.RequestStatusPendingHead},
		{name: "budget change from admin clamps to parent head when present", from: models.RequestStatusPendingAdmin, reason: models.ReturnReasonBudgetChange, ctx: Context{HasParentDepartment: true}, want: models.RequestStatusPendingParentHead},
		{name: "never resumes past the head stage", from: models.RequestStatusPendingHead, reason: models.ReturnReasonOther, ctx: ctx, want: models.RequestStatusPendingHead},
		{name: "return at signature stage keeps the signature pending", from: models.RequestStatusPendingReqSign, reason: models.ReturnReasonOther, ctx: Context{IsRepresentative: true}, want: models.RequestStatusPendingReqSign},
		{name: "details change at signature stage does not skip the signature", from: models.RequestStatusPendingReqSign, reason: models.ReturnReasonDetailsChange, ctx: Context{IsRepresentative: true}, want: models.RequestStatusPendingReqSign},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResumeStatus(tc.from, tc.reason, tc.ctx))
		})
	}
}
