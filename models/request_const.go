package models

type RequestType string

const (
	RequestTypeTravelOrder RequestType = "travel_order"
	RequestTypeSeminar     RequestType = "seminar"
)

type RequestStatus string

const (
	RequestStatusDraft              RequestStatus = "draft"
	RequestStatusPendingReqSign     RequestStatus = "pending_requester_signature"
	RequestStatusPendingHead        RequestStatus = "pending_head"
	RequestStatusPendingParentHead  RequestStatus = "pending_parent_head"
	RequestStatusPendingAdmin       RequestStatus = "pending_admin"
	RequestStatusPendingComptroller RequestStatus = "pending_comptroller"
	RequestStatusPendingHr          RequestStatus = "pending_hr"
	RequestStatusPendingExec        RequestStatus = "pending_exec"
	RequestStatusPendingPresident   RequestStatus = "pending_president"
	RequestStatusApproved           RequestStatus = "approved"
	RequestStatusRejected           RequestStatus = "rejected"
	RequestStatusReturned           RequestStatus = "returned"
	RequestStatusCancelled          RequestStatus = "cancelled"
)

func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled:
		return true
	}
	return false
}

func (s RequestStatus) IsPending() bool {
	switch s {
	case RequestStatusPendingReqSign, RequestStatusPendingHead, RequestStatusPendingParentHead,
		RequestStatusPendingAdmin, RequestStatusPendingComptroller, RequestStatusPendingHr,
		RequestStatusPendingExec, RequestStatusPendingPresident:
		return true
	}
	return false
}

type ApproverRole string

const (
	ApproverRoleRequester   ApproverRole = "requester"
	ApproverRoleSubmitter   ApproverRole = "submitter"
	ApproverRoleHead        ApproverRole = "head"
	ApproverRoleAdmin       ApproverRole = "admin"
	ApproverRoleComptroller ApproverRole = "comptroller"
	ApproverRoleHr          ApproverRole = "hr"
	ApproverRoleVp          ApproverRole = "vp"
	ApproverRolePresident   ApproverRole = "president"
	ApproverRoleSystem      ApproverRole = "system"
)

// ApproverRoleFor returns the single role authorized to act on a status,
// or "" for statuses nobody acts on.
func ApproverRoleFor(status RequestStatus) ApproverRole {
	switch status {
	case RequestStatusPendingReqSign:
		return ApproverRoleRequester
	case RequestStatusPendingHead, RequestStatusPendingParentHead:
		return ApproverRoleHead
	case RequestStatusPendingAdmin:
		return ApproverRoleAdmin
	case RequestStatusPendingComptroller:
		return ApproverRoleComptroller
	case RequestStatusPendingHr:
		return ApproverRoleHr
	case RequestStatusPendingExec:
		return ApproverRoleVp
	case RequestStatusPendingPresident:
		return ApproverRolePresident
	}
	return ""
}

type ReturnReason string

const (
	ReturnReasonBudgetChange  ReturnReason = "budget_change"
	ReturnReasonDriverChange  ReturnReason = "driver_change"
	ReturnReasonDetailsChange ReturnReason = "details_change"
	ReturnReasonOther         ReturnReason = "other"
)

func (r ReturnReason) IsValid() bool {
	switch r {
	case ReturnReasonBudgetChange, ReturnReasonDriverChange, ReturnReasonDetailsChange, ReturnReasonOther:
		return true
	}
	return false
}

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusConfirmed InvitationStatus = "confirmed"
	InvitationStatusDeclined  InvitationStatus = "declined"
	// set by the sweep worker once a pending invitation passes its deadline;
	// expiry itself is always derived from ExpiresAt
	InvitationStatusExpired InvitationStatus = "expired"
)

type HistoryAction string

const (
	HistoryActionCreated          HistoryAction = "created"
	HistoryActionSubmitted        HistoryAction = "submitted"
	HistoryActionSigned           HistoryAction = "signed"
	HistoryActionApproved         HistoryAction = "approved"
	HistoryActionRejected         HistoryAction = "rejected"
	HistoryActionReturned         HistoryAction = "returned"
	HistoryActionResubmitted      HistoryAction = "resubmitted"
	HistoryActionCancelled        HistoryAction = "cancelled"
	HistoryActionStageSkipped     HistoryAction = "stage_skipped"
	HistoryActionIdentityFallback HistoryAction = "identity_fallback"
	HistoryActionInvitesChanged   HistoryAction = "invitations_reconciled"
	HistoryActionInviteExpired    HistoryAction = "invitation_expired"
)
