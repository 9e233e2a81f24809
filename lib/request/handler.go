package requestprovider

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"travelink-backend/config"
	"travelink-backend/db"
	departmentprovider "travelink-backend/lib/dicts/department"
	"travelink-backend/lib/identity"
	"travelink-backend/lib/notification"
	requesthistory "travelink-backend/lib/request-history"
	store "travelink-backend/lib/request/store"
	requesterinvite "travelink-backend/lib/requester-invite"
	usersstore "travelink-backend/lib/users/store"
	initchecker "travelink-backend/lib/utils/init-checker"
	"travelink-backend/lib/utils/lock"
	"travelink-backend/lib/workflow"
	"travelink-backend/models"
	requestapimodels "travelink-backend/models/api/request"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

const (
	metaResumeStatus  = "resume_status"
	metaReturnReason  = "return_reason"
	metaIdentityFlag  = "identity_unresolved"
	transitionTimeout = 3 * time.Second
)

type Provider interface {
	Submit(submitter dbmodels.User, data requestapimodels.SubmitData) (view requestapimodels.RequestView, err error)
	Approve(requestID string, actor dbmodels.User, data requestapimodels.ApproveData) (newStatus models.RequestStatus, err error)
	Return(requestID string, actor dbmodels.User, data requestapimodels.ReturnData) (newStatus models.RequestStatus, err error)
	Skip(requestID string, actor dbmodels.User, data requestapimodels.SkipData) (newStatus models.RequestStatus, err error)
	Reject(requestID string, actor dbmodels.User, data requestapimodels.RejectData) (newStatus models.RequestStatus, err error)
	Cancel(requestID string, actor dbmodels.User) (newStatus models.RequestStatus, err error)
	Resubmit(requestID string, actor dbmodels.User) (newStatus models.RequestStatus, err error)
	UpdateRequesters(requestID string, actor dbmodels.User, data requestapimodels.InviteData) (result requesterinvite.ReconcileResult, err error)
	Get(requestID string) (view requestapimodels.RequestView, err error)
	List(filter requestapimodels.RequestFilter, userID string) (list []requestapimodels.RequestView, rowCount int64, err error)
	History(requestID string) (list []requestapimodels.HistoryView, err error)
}

var Instance Provider

func NewHandler() {
	instance := impl{
		store:      store.NewInstance(db.DB),
		usersStore: usersstore.NewInstance(db.DB),
		identity:   identity.Instance,
		department: departmentprovider.Instance,
	}
	initchecker.CheckInit(
		"store", instance.store,
		"usersStore", instance.usersStore,
		"identity", instance.identity,
		"department", instance.department,
	)
	Instance = instance
}

type impl struct {
	store      store.Provider
	usersStore usersstore.Provider
	identity   identity.Provider
	department departmentprovider.Provider
}

func (i impl) Submit(submitter dbmodels.User, data requestapimodels.SubmitData) (view requestapimodels.RequestView, err error) {
	logger := log.WithField("submitter_id", submitter.ID)
	err = data.Validate()
	if err != nil {
		return view, err
	}
	if data.RequestID != "" {
		return i.finalizeDraft(submitter, data)
	}
	res, err := i.identity.Resolve(data.RequestingPerson, submitter, data.RequestType, data.IsDraft)
	if err != nil {
		return view, err
	}
	isRepresentative := res.RequesterID != submitter.ID
	dept, err := i.department.Resolve(departmentprovider.ResolveInput{
		RequesterDepartmentID: res.RequesterDepartmentID,
		FormSelected:          data.Department,
		SubmitterDepartmentID: submitter.DepartmentID,
		IsRepresentative:      isRepresentative,
		IsDraft:               data.IsDraft,
	})
	if err != nil {
		return view, err
	}

	hasBudget := data.HasBudget()
	wfCtx := workflow.Context{
		RequesterIsHead:     res.RequesterIsHead,
		IsRepresentative:    isRepresentative,
		HasBudget:           hasBudget,
		HasParentDepartment: dept != nil && dept.HasParent(),
		RequiresPresident:   hasBudget && data.TotalBudget >= presidentThreshold(),
	}
	status := workflow.InitialStatus(data.IsDraft, wfCtx)

	rec := dbmodels.Request{
		RequestType:         data.RequestType,
		Status:              status,
		Title:               data.Title,
		Purpose:             data.Purpose,
		Destination:         data.Destination,
		TravelStartDate:     data.TravelStartDate,
		TravelEndDate:       data.TravelEndDate,
		RequesterID:         res.RequesterID,
		RequesterName:       res.RequesterName,
		RequesterIsHead:     res.RequesterIsHead,
		SubmitterID:         submitter.ID,
		IsRepresentative:    isRepresentative,
		HasBudget:           hasBudget,
		TotalBudget:         data.TotalBudget,
		RequiresPresident:   wfCtx.RequiresPresident,
		CurrentApproverRole: approverRoleFor(status),
		WorkflowMetadata:    dbmodels.JSONMap{},
	}
	if dept != nil {
		rec.DepartmentID = &dept.ID
	}
	if data.Signature != "" {
		rec.WorkflowMetadata["requester_signature"] = data.Signature
	}
	if res.FellBack {
		rec.WorkflowMetadata[metaIdentityFlag] = true
	}

	requestID, err := i.createWithNumber(rec, submitter, data)
	if err != nil {
		return view, err
	}
	logger.
		WithField("request_id", requestID).
		WithField("status", status).
		Info("request submitted")

	created, err := i.store.GetByID(requestID)
	if err != nil {
		return view, err
	}
	i.notifyTransition(*created, status)
	return requestapimodels.RequestConvert(*created), nil
}

// createWithNumber persists the request together with its invitations and
// audit entries. A request-number collision is retried a bounded number of
// times with backoff, each attempt in a fresh transaction.
func (i impl) createWithNumber(rec dbmodels.Request, submitter dbmodels.User, data requestapimodels.SubmitData) (requestID string, err error) {
	attempts := numberRetries()
	for attempt := 0; attempt < attempts; attempt++ {
		rec.RequestNumber = newRequestNumber(rec.RequestType)
		err = db.DB.Transaction(func(tx *gorm.DB) error {
			txStore := store.NewInstance(tx)
			id, txErr := txStore.Create(rec)
			if txErr != nil {
				return txErr
			}
			requestID = id
			history := requesthistory.NewWithTx(tx)
			history.Append(requesthistory.Entry{
				RequestID: id,
				Action:    models.HistoryActionCreated,
				ActorID:   submitter.ID,
				ActorRole: models.ApproverRoleSubmitter,
				NewStatus: rec.Status,
				Metadata: dbmodels.JSONMap{
					"request_number": rec.RequestNumber,
				},
			})
			if v, ok := rec.WorkflowMetadata[metaIdentityFlag]; ok && v == true {
				history.Append(requesthistory.Entry{
					RequestID: id,
					Action:    models.HistoryActionIdentityFallback,
					ActorID:   models.SystemUser,
					ActorRole: models.ApproverRoleSystem,
					NewStatus: rec.Status,
					Comments:  fmt.Sprintf("requester %q not found, submitter identity used provisionally", data.RequestingPerson),
				})
			}
			if rec.RequestType == models.RequestTypeTravelOrder && len(data.Requesters) > 0 {
				invites := requesterinvite.NewWithTx(tx)
				result, txErr := invites.Reconcile(id, submitter, data.Requesters)
				if txErr != nil {
					return txErr
				}
				if result.Changed() {
					history.Append(requesthistory.Entry{
						RequestID: id,
						Action:    models.HistoryActionInvitesChanged,
						ActorID:   submitter.ID,
						ActorRole: models.ApproverRoleSubmitter,
						NewStatus: rec.Status,
						Metadata: dbmodels.JSONMap{
							"created": result.Created,
							"deleted": result.Deleted,
							"kept":    result.Kept,
						},
					})
				}
				if !data.IsDraft && len(data.Requesters) > 1 {
					txErr = invites.CanFinalize(id, result.Created)
					if txErr != nil {
						return txErr
					}
				}
			}
			return nil
		})
		if err == nil {
			return requestID, nil
		}
		if !isUniqueViolation(err) {
			return "", err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return "", errors.Wrap(apperrors.ErrConflict, "failed to allocate a unique request number")
}

// finalizeDraft moves an existing draft into the approval ladder. Identity
// and department are resolved again from the edited form, the requester list
// is reconciled, and the finalization gate runs against the invitations on
// file, so confirmations collected while the request sat in draft count.
// Submitting with is_draft still set just updates the stored draft.
func (i impl) finalizeDraft(actor dbmodels.User, data requestapimodels.SubmitData) (view requestapimodels.RequestView, err error) {
	var newStatus models.RequestStatus
	err = i.withTransition(data.RequestID, func(rec dbmodels.Request) error {
		if rec.Status != models.RequestStatusDraft {
			return errors.Wrapf(apperrors.ErrInvalidTransition, "request is %s, only drafts can be submitted again", rec.Status)
		}
		if actor.ID != rec.RequesterID && actor.ID != rec.SubmitterID {
			return errors.Wrap(apperrors.ErrInvalidTransition, "only the requester or submitter may submit a draft")
		}
		res, rErr := i.identity.Resolve(data.RequestingPerson, actor, data.RequestType, data.IsDraft)
		if rErr != nil {
			return rErr
		}
		isRepresentative := res.RequesterID != rec.SubmitterID
		dept, dErr := i.department.Resolve(departmentprovider.ResolveInput{
			RequesterDepartmentID: res.RequesterDepartmentID,
			FormSelected:          data.Department,
			SubmitterDepartmentID: actor.DepartmentID,
			IsRepresentative:      isRepresentative,
			IsDraft:               data.IsDraft,
		})
		if dErr != nil {
			return dErr
		}
		hasBudget := data.HasBudget()
		wfCtx := workflow.Context{
			RequesterIsHead:     res.RequesterIsHead,
			IsRepresentative:    isRepresentative,
			HasBudget:           hasBudget,
			HasParentDepartment: dept != nil && dept.HasParent(),
			RequiresPresident:   hasBudget && data.TotalBudget >= presidentThreshold(),
		}
		newStatus = workflow.InitialStatus(data.IsDraft, wfCtx)
		metadata := dbmodels.JSONMap{}
		if data.Signature != "" {
			metadata["requester_signature"] = data.Signature
		}
		if res.FellBack {
			metadata[metaIdentityFlag] = true
		}
		var departmentID *string
		if dept != nil {
			departmentID = &dept.ID
		}
		updMap := map[string]interface{}{
			"request_type":          data.RequestType,
			"status":                newStatus,
			"title":                 data.Title,
			"purpose":               data.Purpose,
			"destination":           data.Destination,
			"travel_start_date":     data.TravelStartDate,
			"travel_end_date":       data.TravelEndDate,
			"requester_id":          res.RequesterID,
			"requester_name":        res.RequesterName,
			"requester_is_head":     res.RequesterIsHead,
			"is_representative":     isRepresentative,
			"department_id":         departmentID,
			"has_budget":            hasBudget,
			"total_budget":          data.TotalBudget,
			"requires_president":    wfCtx.RequiresPresident,
			"current_approver_role": approverRoleFor(newStatus),
			"workflow_metadata":     rec.WorkflowMetadata.Merged(metadata),
		}
		role := models.ApproverRoleRequester
		if actor.ID == rec.SubmitterID && actor.ID != rec.RequesterID {
			role = models.ApproverRoleSubmitter
		}
		return db.DB.Transaction(func(tx *gorm.DB) error {
			txStore := store.NewInstance(tx)
			txErr := txStore.UpdateIfStatus(rec.ID, models.RequestStatusDraft, updMap)
			if txErr != nil {
				return txErr
			}
			history := requesthistory.NewWithTx(tx)
			invites := requesterinvite.NewWithTx(tx)
			var freshlyInvited []string
			if data.RequestType == models.RequestTypeTravelOrder && len(data.Requesters) > 0 {
				result, iErr := invites.Reconcile(rec.ID, actor, data.Requesters)
				if iErr != nil {
					return iErr
				}
				freshlyInvited = result.Created
				if result.Changed() {
					history.Append(requesthistory.Entry{
						RequestID: rec.ID,
						Action:    models.HistoryActionInvitesChanged,
						ActorID:   actor.ID,
						ActorRole: role,
						NewStatus: newStatus,
						Metadata: dbmodels.JSONMap{
							"created": result.Created,
							"deleted": result.Deleted,
							"kept":    result.Kept,
						},
					})
				}
			}
			if data.IsDraft {
				return nil
			}
			if data.RequestType == models.RequestTypeTravelOrder && len(data.Requesters) > 1 {
				txErr = invites.CanFinalize(rec.ID, freshlyInvited)
				if txErr != nil {
					return txErr
				}
			}
			prior := models.RequestStatusDraft
			history.Append(requesthistory.Entry{
				RequestID:      rec.ID,
				Action:         models.HistoryActionSubmitted,
				ActorID:        actor.ID,
				ActorRole:      role,
				PreviousStatus: &prior,
				NewStatus:      newStatus,
			})
			if res.FellBack {
				history.Append(requesthistory.Entry{
					RequestID: rec.ID,
					Action:    models.HistoryActionIdentityFallback,
					ActorID:   models.SystemUser,
					ActorRole: models.ApproverRoleSystem,
					NewStatus: newStatus,
					Comments:  fmt.Sprintf("requester %q not found, submitter identity used provisionally", data.RequestingPerson),
				})
			}
			return nil
		})
	})
	if err != nil {
		return view, err
	}
	updated, err := i.store.GetByID(data.RequestID)
	if err != nil {
		return view, err
	}
	if updated == nil {
		return view, errors.Wrap(apperrors.ErrNotFound, "request not found")
	}
	log.WithField("request_id", updated.ID).
		WithField("status", newStatus).
		Info("draft submitted")
	i.notifyTransition(*updated, newStatus)
	return requestapimodels.RequestConvert(*updated), nil
}

func (i impl) Approve(requestID string, actor dbmodels.User, data requestapimodels.ApproveData) (newStatus models.RequestStatus, err error) {
	err = i.withTransition(requestID, func(rec dbmodels.Request) error {
		actorRole, aErr := i.authorize(rec, actor)
		if aErr != nil {
			return aErr
		}
		wfCtx := contextOf(rec)
		updMap := map[string]interface{}{
			"next_approver_id":   nil,
			"next_approver_role": nil,
		}
		metadata := dbmodels.JSONMap{}
		action := models.HistoryActionApproved
		if rec.Status == models.RequestStatusPendingReqSign {
			action = models.HistoryActionSigned
			if data.Signature != "" {
				metadata["requester_signature"] = data.Signature
			}
		}
		if data.HasOverride() {
			target, metaKey, oErr := workflow.ApplyOverride(rec.Status, workflow.Override{
				ApproverID: data.NextApproverID,
				Role:       data.NextApproverRole,
			})
			if oErr != nil {
				return oErr
			}
			nextUser, uErr := i.usersStore.GetByID(data.NextApproverID)
			if uErr != nil {
				return uErr
			}
			if nextUser == nil {
				return apperrors.NewValidationError("next_approver_id", "approver %q not found", data.NextApproverID)
			}
			newStatus = target
			nextID := data.NextApproverID
			nextRole := data.NextApproverRole
			updMap["next_approver_id"] = nextID
			updMap["next_approver_role"] = &nextRole
			rec.NextApproverID = &nextID
			rec.NextApproverRole = &nextRole
			metadata[metaKey] = nextID
			metadata["sent_to_role"] = string(nextRole)
			metadata["sent_to_id"] = nextID
		} else {
			next, nErr := i.nextStatus(rec, wfCtx)
			if nErr != nil {
				return nErr
			}
			newStatus = next
			rec.NextApproverID = nil
			rec.NextApproverRole = nil
			metadata["sent_to_role"] = string(approverRoleFor(next))
		}
		updMap["status"] = newStatus
		updMap["current_approver_role"] = approverRoleFor(newStatus)
		if len(metadata) > 0 {
			updMap["workflow_metadata"] = rec.WorkflowMetadata.Merged(metadata)
		}
		return i.commit(rec, actor, actorRole, action, newStatus, data.Comments, metadata, updMap)
	})
	return newStatus, err
}

// nextStatus follows the default ladder. When ladder resumption after an
// explicit override is disabled, an override-routed stage completes the
// review: the request jumps to the president when required, otherwise it is
// approved outright.
func (i impl) nextStatus(rec dbmodels.Request, wfCtx workflow.Context) (models.RequestStatus, error) {
	if !resumeLadderAfterOverride() && rec.NextApproverRole != nil {
		if rec.Status == models.RequestStatusPendingPresident || !wfCtx.RequiresPresident {
			return models.RequestStatusApproved, nil
		}
		return models.RequestStatusPendingPresident, nil
	}
	return workflow.Next(rec.Status, wfCtx)
}

func (i impl) Return(requestID string, actor dbmodels.User, data requestapimodels.ReturnData) (newStatus models.RequestStatus, err error) {
	err = data.Validate()
	if err != nil {
		return "", err
	}
	err = i.withTransition(requestID, func(rec dbmodels.Request) error {
		actorRole, aErr := i.authorize(rec, actor)
		if aErr != nil {
			return aErr
		}
		resume := workflow.ResumeStatus(rec.Status, data.Reason, contextOf(rec))
		newStatus = models.RequestStatusReturned
		metadata := dbmodels.JSONMap{
			metaResumeStatus: string(resume),
			metaReturnReason: string(data.Reason),
		}
		updMap := map[string]interface{}{
			"status":                newStatus,
			"current_approver_role": models.ApproverRoleRequester,
			"next_approver_id":      nil,
			"next_approver_role":    nil,
			"workflow_metadata":     rec.WorkflowMetadata.Merged(metadata),
		}
		return i.commit(rec, actor, actorRole, models.HistoryActionReturned, newStatus, data.Comments, metadata, updMap)
	})
	return newStatus, err
}

func (i impl) Skip(requestID string, actor dbmodels.User, data requestapimodels.SkipData) (newStatus models.RequestStatus, err error) {
	err = data.Validate()
	if err != nil {
		return "", err
	}
	err = i.withTransition(requestID, func(rec dbmodels.Request) error {
		actorRole, aErr := i.authorize(rec, actor)
		if aErr != nil {
			return aErr
		}
		if rec.Status != data.Stage {
			return errors.Wrapf(apperrors.ErrInvalidTransition, "request is at %s, not %s", rec.Status, data.Stage)
		}
		next, sErr := workflow.Skip(rec.Status, contextOf(rec))
		if sErr != nil {
			return sErr
		}
		newStatus = next
		metadata := dbmodels.JSONMap{
			"skipped_stage": string(data.Stage),
			"skip_reason":   data.Reason,
		}
		updMap := map[string]interface{}{
			"status":                newStatus,
			"current_approver_role": approverRoleFor(newStatus),
			"workflow_metadata":     rec.WorkflowMetadata.Merged(metadata),
		}
		return i.commit(rec, actor, actorRole, models.HistoryActionStageSkipped, newStatus, data.Reason, metadata, updMap)
	})
	return newStatus, err
}

func (i impl) Reject(requestID string, actor dbmodels.User, data requestapimodels.RejectData) (newStatus models.RequestStatus, err error) {
	err = i.withTransition(requestID, func(rec dbmodels.Request) error {
		actorRole, aErr := i.authorize(rec, actor)
		if aErr != nil {
			return aErr
		}
		newStatus = models.RequestStatusRejected
		updMap := map[string]interface{}{
			"status":                newStatus,
			"current_approver_role": "",
			"next_approver_id":      nil,
			"next_approver_role":    nil,
		}
		return i.commit(rec, actor, actorRole, models.HistoryActionRejected, newStatus, data.Comments, nil, updMap)
	})
	return newStatus, err
}

func (i impl) Cancel(requestID string, actor dbmodels.User) (newStatus models.RequestStatus, err error) {
	err = i.withTransition(requestID, func(rec dbmodels.Request) error {
		if actor.ID != rec.RequesterID && actor.ID != rec.SubmitterID {
			return errors.Wrap(apperrors.ErrInvalidTransition, "only the requester or submitter may cancel a request")
		}
		newStatus = models.RequestStatusCancelled
		updMap := map[string]interface{}{
			"status":                newStatus,
			"current_approver_role": "",
			"next_approver_id":      nil,
			"next_approver_role":    nil,
		}
		role := models.ApproverRoleRequester
		if actor.ID == rec.SubmitterID {
			role = models.ApproverRoleSubmitter
		}
		return i.commit(rec, actor, role, models.HistoryActionCancelled, newStatus, "", nil, updMap)
	})
	return newStatus, err
}

// Resubmit puts a returned request back into the ladder at the stage whose
// output had to be redone.
func (i impl) Resubmit(requestID string, actor dbmodels.User) (newStatus models.RequestStatus, err error) {
	err = i.withTransition(requestID, func(rec dbmodels.Request) error {
		if rec.Status != models.RequestStatusReturned {
			return errors.Wrapf(apperrors.ErrInvalidTransition, "request is %s, only returned requests can be resubmitted", rec.Status)
		}
		if actor.ID != rec.RequesterID && actor.ID != rec.SubmitterID {
			return errors.Wrap(apperrors.ErrInvalidTransition, "only the requester or submitter may resubmit a request")
		}
		newStatus = models.RequestStatusPendingHead
		if v, ok := rec.WorkflowMetadata[metaResumeStatus].(string); ok && v != "" {
			newStatus = models.RequestStatus(v)
		}
		updMap := map[string]interface{}{
			"status":                newStatus,
			"current_approver_role": approverRoleFor(newStatus),
		}
		role := models.ApproverRoleRequester
		if actor.ID == rec.SubmitterID && actor.ID != rec.RequesterID {
			role = models.ApproverRoleSubmitter
		}
		return i.commit(rec, actor, role, models.HistoryActionResubmitted, newStatus, "", nil, updMap)
	})
	return newStatus, err
}

// UpdateRequesters reconciles the named requester list of a request that has
// not entered the approval ladder yet. Invitations for the final list are the
// gate Submit enforces before a multi-requester request leaves draft.
func (i impl) UpdateRequesters(requestID string, actor dbmodels.User, data requestapimodels.InviteData) (result requesterinvite.ReconcileResult, err error) {
	if err = data.Validate(); err != nil {
		return result, err
	}
	err = i.withTransition(requestID, func(rec dbmodels.Request) error {
		if actor.ID != rec.RequesterID && actor.ID != rec.SubmitterID {
			return errors.Wrap(apperrors.ErrInvalidTransition, "only the requester or submitter may edit the requester list")
		}
		switch rec.Status {
		case models.RequestStatusDraft, models.RequestStatusReturned, models.RequestStatusPendingReqSign:
		default:
			return errors.Wrapf(apperrors.ErrInvalidTransition, "requester list is frozen while the request is %s", rec.Status)
		}
		submitter := actor
		if rec.Submitter != nil {
			submitter = *rec.Submitter
		}
		return db.DB.Transaction(func(tx *gorm.DB) error {
			invites := requesterinvite.NewWithTx(tx)
			reconciled, txErr := invites.Reconcile(rec.ID, submitter, data.Requesters)
			if txErr != nil {
				return txErr
			}
			result = reconciled
			if result.Changed() {
				role := models.ApproverRoleRequester
				if actor.ID == rec.SubmitterID && actor.ID != rec.RequesterID {
					role = models.ApproverRoleSubmitter
				}
				requesthistory.NewWithTx(tx).Append(requesthistory.Entry{
					RequestID: rec.ID,
					Action:    models.HistoryActionInvitesChanged,
					ActorID:   actor.ID,
					ActorRole: role,
					NewStatus: rec.Status,
					Metadata: dbmodels.JSONMap{
						"created": result.Created,
						"deleted": result.Deleted,
						"kept":    result.Kept,
					},
				})
			}
			return nil
		})
	})
	return result, err
}

func (i impl) Get(requestID string) (view requestapimodels.RequestView, err error) {
	rec, err := i.store.GetByID(requestID)
	if err != nil {
		return view, err
	}
	if rec == nil {
		return view, errors.Wrap(apperrors.ErrNotFound, "request not found")
	}
	return requestapimodels.RequestConvert(*rec), nil
}

func (i impl) List(filter requestapimodels.RequestFilter, userID string) (list []requestapimodels.RequestView, rowCount int64, err error) {
	recList, rowCount, err := i.store.List(filter, userID)
	if err != nil {
		return nil, 0, err
	}
	result := make([]requestapimodels.RequestView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, requestapimodels.RequestConvert(rec))
	}
	return result, rowCount, nil
}

func (i impl) History(requestID string) (list []requestapimodels.HistoryView, err error) {
	return requesthistory.Instance.List(requestID)
}

// withTransition serializes transitions per request and re-reads the row
// under the lock. A status that moved between the initial read and lock
// acquisition means a concurrent action won; the loser gets ErrConflict
// rather than a misleading transition error. The optimistic status check
// in commit catches anything that slipped past the lock.
func (i impl) withTransition(requestID string, transition func(rec dbmodels.Request) error) error {
	entry, err := i.store.GetByID(requestID)
	if err != nil {
		return err
	}
	if entry == nil {
		return errors.Wrap(apperrors.ErrNotFound, "request not found")
	}
	observed := entry.Status
	acquired, err := lock.WithDelay(context.Background(), "request:"+requestID, transitionTimeout, func() error {
		rec, tErr := i.store.GetByID(requestID)
		if tErr != nil {
			return tErr
		}
		if rec == nil {
			return errors.Wrap(apperrors.ErrNotFound, "request not found")
		}
		if rec.Status != observed {
			return errors.Wrapf(apperrors.ErrConflict, "request moved from %s to %s during a concurrent action", observed, rec.Status)
		}
		if rec.Status.IsTerminal() {
			return errors.Wrapf(apperrors.ErrInvalidTransition, "request is already %s", rec.Status)
		}
		return transition(*rec)
	})
	if err != nil {
		return err
	}
	if !acquired {
		return errors.Wrap(apperrors.ErrConflict, "another action on this request is in flight")
	}
	return nil
}

// commit applies the transition with an optimistic status check and records
// the audit entry in the same transaction. Notifications follow after the
// commit and never roll it back.
func (i impl) commit(rec dbmodels.Request, actor dbmodels.User, actorRole models.ApproverRole, action models.HistoryAction, newStatus models.RequestStatus, comments string, metadata dbmodels.JSONMap, updMap map[string]interface{}) error {
	prior := rec.Status
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		txStore := store.NewInstance(tx)
		txErr := txStore.UpdateIfStatus(rec.ID, prior, updMap)
		if txErr != nil {
			return txErr
		}
		requesthistory.NewWithTx(tx).Append(requesthistory.Entry{
			RequestID:      rec.ID,
			Action:         action,
			ActorID:        actor.ID,
			ActorRole:      actorRole,
			PreviousStatus: &prior,
			NewStatus:      newStatus,
			Comments:       comments,
			Metadata:       metadata,
		})
		return nil
	})
	if err != nil {
		return err
	}
	log.WithField("request_id", rec.ID).
		WithField("actor_id", actor.ID).
		WithField("action", action).
		WithField("new_status", newStatus).
		Info("request transition committed")
	rec.Status = newStatus
	i.notifyTransition(rec, newStatus)
	return nil
}

// authorize determines the role the actor holds for the request's current
// stage. Exactly one role is authorized at any instant; a targeted override
// additionally pins the request to a specific approver.
func (i impl) authorize(rec dbmodels.Request, actor dbmodels.User) (models.ApproverRole, error) {
	if rec.NextApproverID != nil && *rec.NextApproverID != "" && *rec.NextApproverID != actor.ID {
		return "", errors.Wrap(apperrors.ErrInvalidTransition, "request is routed to a different approver")
	}
	for _, role := range rolesOf(rec, actor) {
		if workflow.CanAct(role, rec.Status) {
			return role, nil
		}
	}
	return "", errors.Wrapf(apperrors.ErrInvalidTransition, "actor is not authorized to act at %s", rec.Status)
}

func rolesOf(rec dbmodels.Request, actor dbmodels.User) []models.ApproverRole {
	roles := []models.ApproverRole{}
	if actor.ID == rec.RequesterID {
		roles = append(roles, models.ApproverRoleRequester)
	}
	if actor.IsHead && actor.DepartmentID != nil {
		switch rec.Status {
		case models.RequestStatusPendingHead:
			if rec.DepartmentID != nil && *actor.DepartmentID == *rec.DepartmentID {
				roles = append(roles, models.ApproverRoleHead)
			}
		case models.RequestStatusPendingParentHead:
			if rec.Department != nil && rec.Department.ParentID != nil && *actor.DepartmentID == *rec.Department.ParentID {
				roles = append(roles, models.ApproverRoleHead)
			}
		}
	}
	if actor.IsAdmin {
		roles = append(roles, models.ApproverRoleAdmin)
	}
	if actor.IsComptroller {
		roles = append(roles, models.ApproverRoleComptroller)
	}
	if actor.IsHr {
		roles = append(roles, models.ApproverRoleHr)
	}
	if actor.IsExec && actor.ExecType != nil {
		switch *actor.ExecType {
		case models.ExecTypeVp:
			roles = append(roles, models.ApproverRoleVp)
		case models.ExecTypePresident:
			roles = append(roles, models.ApproverRolePresident)
		}
	}
	return roles
}

func (i impl) notifyTransition(rec dbmodels.Request, newStatus models.RequestStatus) {
	if notification.Instance == nil {
		return
	}
	title := fmt.Sprintf("Request %s", rec.RequestNumber)
	switch newStatus {
	case models.RequestStatusDraft:
		// Drafts stay quiet.
	case models.RequestStatusPendingReqSign:
		notification.Instance.Notify(rec.RequesterID, dbmodels.NotificationPendingSignature, title,
			"A travel request filed on your behalf is waiting for your signature.", &rec.ID)
	case models.RequestStatusApproved:
		notification.Instance.Notify(rec.RequesterID, dbmodels.NotificationRequestApproved, title,
			"Your travel request has been approved.", &rec.ID)
		if rec.SubmitterID != rec.RequesterID {
			notification.Instance.Notify(rec.SubmitterID, dbmodels.NotificationRequestApproved, title,
				"The travel request you filed has been approved.", &rec.ID)
		}
	case models.RequestStatusReturned:
		notification.Instance.Notify(rec.RequesterID, dbmodels.NotificationRequestReturned, title,
			"Your travel request was returned for changes.", &rec.ID)
	case models.RequestStatusRejected:
		notification.Instance.Notify(rec.RequesterID, dbmodels.NotificationRequestRejected, title,
			"Your travel request was rejected.", &rec.ID)
	case models.RequestStatusCancelled:
		// The canceling party already knows.
	default:
		message := "A travel request is waiting for your review."
		if rec.NextApproverID != nil && *rec.NextApproverID != "" {
			notification.Instance.Notify(*rec.NextApproverID, dbmodels.NotificationApprovalRequested, title, message, &rec.ID)
			return
		}
		role := approverRoleFor(newStatus)
		if role != "" && role != models.ApproverRoleRequester {
			notification.Instance.NotifyRole(role, dbmodels.NotificationApprovalRequested, title, message, &rec.ID)
		}
	}
}

func contextOf(rec dbmodels.Request) workflow.Context {
	return workflow.Context{
		RequesterIsHead:     rec.RequesterIsHead,
		IsRepresentative:    rec.IsRepresentative,
		HasBudget:           rec.HasBudget,
		HasParentDepartment: rec.Department != nil && rec.Department.HasParent(),
		RequiresPresident:   rec.RequiresPresident,
	}
}

func approverRoleFor(status models.RequestStatus) models.ApproverRole {
	if status == models.RequestStatusReturned {
		return models.ApproverRoleRequester
	}
	return models.ApproverRoleFor(status)
}

var numberPrefixes = map[models.RequestType]string{
	models.RequestTypeTravelOrder: "TO",
	models.RequestTypeSeminar:     "SA",
}

func newRequestNumber(requestType models.RequestType) string {
	prefix, ok := numberPrefixes[requestType]
	if !ok {
		prefix = "TO"
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, time.Now().Year(), rand.Intn(1000000))
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func presidentThreshold() float64 {
	if config.Conf != nil && config.Conf.Workflow.PresidentBudgetThreshold > 0 {
		return config.Conf.Workflow.PresidentBudgetThreshold
	}
	return 50000
}

func numberRetries() int {
	if config.Conf != nil && config.Conf.Workflow.RequestNumberRetries > 0 {
		return config.Conf.Workflow.RequestNumberRetries
	}
	return 5
}

func resumeLadderAfterOverride() bool {
	if config.Conf != nil && config.Conf.Workflow.ResumeLadderAfterOverride != nil {
		return *config.Conf.Workflow.ResumeLadderAfterOverride
	}
	return true
}
