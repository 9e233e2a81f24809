package workflow

import (
	"github.com/pkg/errors"

	"travelink-backend/models"
	"travelink-backend/models/apperrors"
)

// Context carries the routing facts a transition depends on. It is built by
// the request handler from the persisted row; the engine itself never touches
// storage.
type Context struct {
	RequesterIsHead     bool
	IsRepresentative    bool
	HasBudget           bool
	HasParentDepartment bool
	RequiresPresident   bool
}

// Override is an explicit "messenger routing" target supplied by the acting
// approver instead of the default next rung.
type Override struct {
	ApproverID string
	Role       models.ApproverRole
}

// ladder is the default approval order. parent_head and comptroller are
// conditional rungs; president only when required.
var ladder = []models.RequestStatus{
	models.RequestStatusPendingHead,
	models.RequestStatusPendingParentHead,
	models.RequestStatusPendingAdmin,
	models.RequestStatusPendingComptroller,
	models.RequestStatusPendingHr,
	models.RequestStatusPendingExec,
	models.RequestStatusPendingPresident,
}

// InitialStatus determines where a new submission enters the workflow.
// A representative submission waits for the requester's own signature first,
// unless the requester is a head (heads sign as they approve).
func InitialStatus(isDraft bool, ctx Context) models.RequestStatus {
	if isDraft {
		return models.RequestStatusDraft
	}
	if ctx.IsRepresentative && !ctx.RequesterIsHead {
		return models.RequestStatusPendingReqSign
	}
	return models.RequestStatusPendingHead
}

// Next computes the status after an approve action at the current stage,
// following the default ladder.
func Next(current models.RequestStatus, ctx Context) (models.RequestStatus, error) {
	if current.IsTerminal() {
		return "", errors.Wrapf(apperrors.ErrInvalidTransition, "request is already %s", current)
	}
	switch current {
	case models.RequestStatusPendingReqSign:
		return models.RequestStatusPendingHead, nil
	case models.RequestStatusPendingHead:
		if ctx.HasParentDepartment {
			return models.RequestStatusPendingParentHead, nil
		}
		return models.RequestStatusPendingAdmin, nil
	case models.RequestStatusPendingParentHead:
		return models.RequestStatusPendingAdmin, nil
	case models.RequestStatusPendingAdmin:
		if ctx.HasBudget {
			return models.RequestStatusPendingComptroller, nil
		}
		return models.RequestStatusPendingHr, nil
	case models.RequestStatusPendingComptroller:
		return models.RequestStatusPendingHr, nil
	case models.RequestStatusPendingHr:
		return models.RequestStatusPendingExec, nil
	case models.RequestStatusPendingExec:
		if ctx.RequiresPresident {
			return models.RequestStatusPendingPresident, nil
		}
		return models.RequestStatusApproved, nil
	case models.RequestStatusPendingPresident:
		return models.RequestStatusApproved, nil
	}
	return "", errors.Wrapf(apperrors.ErrInvalidTransition, "no approve transition from %s", current)
}

// validOverrideTargets lists, per stage, the roles an explicit override may
// route to. The head may hand the request to a chosen vp, admin or the
// president; hr routes to an executive; a vp may send it on to the president
// or back to admin for final processing.
var validOverrideTargets = map[models.RequestStatus][]models.ApproverRole{
	models.RequestStatusPendingHead: {models.ApproverRoleAdmin, models.ApproverRoleVp, models.ApproverRolePresident},
	models.RequestStatusPendingHr:   {models.ApproverRoleVp, models.ApproverRolePresident},
	models.RequestStatusPendingExec: {models.ApproverRoleAdmin, models.ApproverRolePresident},
}

var overrideTargetStatus = map[models.ApproverRole]models.RequestStatus{
	models.ApproverRoleAdmin:     models.RequestStatusPendingAdmin,
	models.ApproverRoleVp:        models.RequestStatusPendingExec,
	models.ApproverRolePresident: models.RequestStatusPendingPresident,
}

// ApplyOverride resolves an explicit routing override for the current stage.
// It returns the target status and the workflow_metadata key recording who
// the request was routed to (e.g. next_admin_id).
func ApplyOverride(current models.RequestStatus, o Override) (models.RequestStatus, string, error) {
	if o.ApproverID == "" || o.Role == "" {
		return "", "", apperrors.NewValidationError("next_approver", "both next approver id and role are required")
	}
	allowed, ok := validOverrideTargets[current]
	if !ok {
		return "", "", errors.Wrapf(apperrors.ErrInvalidTransition, "stage %s does not allow explicit routing", current)
	}
	for _, role := range allowed {
		if role == o.Role {
			return overrideTargetStatus[o.Role], MetadataKeyFor(o.Role), nil
		}
	}
	return "", "", errors.Wrapf(apperrors.ErrInvalidTransition, "stage %s cannot route to role %s", current, o.Role)
}

// MetadataKeyFor is the workflow_metadata key that records an explicit
// routing target for later inbox lookups.
func MetadataKeyFor(role models.ApproverRole) string {
	return "next_" + string(role) + "_id"
}

// CanAct reports whether the given role is the one authorized to act on the
// current status. Exactly one role is authorized at any instant.
func CanAct(role models.ApproverRole, current models.RequestStatus) bool {
	authorized := models.ApproverRoleFor(current)
	if authorized == "" {
		return false
	}
	// The president outranks a vp on executive review.
	if authorized == models.ApproverRoleVp && role == models.ApproverRolePresident {
		return true
	}
	return role == authorized
}

// Skip computes the status after an explicit, reasoned skip of a stage. Only
// the admin and comptroller rungs are skippable.
func Skip(current models.RequestStatus, ctx Context) (models.RequestStatus, error) {
	switch current {
	case models.RequestStatusPendingAdmin:
		if ctx.HasBudget {
			return models.RequestStatusPendingComptroller, nil
		}
		return models.RequestStatusPendingHr, nil
	case models.RequestStatusPendingComptroller:
		return models.RequestStatusPendingHr, nil
	}
	return "", errors.Wrapf(apperrors.ErrInvalidTransition, "stage %s cannot be skipped", current)
}

// ResumeStatus is where a returned request re-enters the ladder on
// resubmission: the stage whose output must be redone, never draft.
func ResumeStatus(from models.RequestStatus, reason models.ReturnReason, ctx Context) models.RequestStatus {
	// The signature stage sits before the ladder proper. A return issued
	// there resumes there: the requester's signature is the output being
	// redone, and it must not be skipped for representative submissions.
	if from == models.RequestStatusPendingReqSign {
		return from
	}
	var target models.RequestStatus
	switch reason {
	case models.ReturnReasonBudgetChange, models.ReturnReasonDriverChange:
		// Budget preparation and vehicle assignment are admin outputs.
		target = models.RequestStatusPendingAdmin
	case models.ReturnReasonDetailsChange:
		target = models.RequestStatusPendingHead
	default:
		target = prevStage(from, ctx)
	}
	// The resume point must lie before the returning stage.
	if ladderIndex(target) >= ladderIndex(from) {
		target = prevStage(from, ctx)
	}
	return target
}

func ladderIndex(status models.RequestStatus) int {
	for i, s := range ladder {
		if s == status {
			return i
		}
	}
	return -1
}

// stageApplies reports whether a conditional rung is part of this request's
// ladder at all.
func stageApplies(status models.RequestStatus, ctx Context) bool {
	switch status {
	case models.RequestStatusPendingParentHead:
		return ctx.HasParentDepartment
	case models.RequestStatusPendingComptroller:
		return ctx.HasBudget
	case models.RequestStatusPendingPresident:
		return ctx.RequiresPresident
	}
	return true
}

func prevStage(from models.RequestStatus, ctx Context) models.RequestStatus {
	for idx := ladderIndex(from) - 1; idx > 0; idx-- {
		if stageApplies(ladder[idx], ctx) {
			return ladder[idx]
		}
	}
	return models.RequestStatusPendingHead
}
