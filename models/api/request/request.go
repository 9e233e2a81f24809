package requestapimodels

import (
	"time"

	"travelink-backend/models"
	apimodels "travelink-backend/models/api"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

type NamedRequester struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type SubmitData struct {
	// RequestID, when set, resubmits the existing draft with that id
	// instead of creating a new request.
	RequestID        string             `json:"request_id,omitempty"`
	RequestType      models.RequestType `json:"request_type"`
	Title            string             `json:"title"`
	Purpose          string             `json:"purpose"`
	Destination      string             `json:"destination"`
	TravelStartDate  time.Time          `json:"travel_start_date"`
	TravelEndDate    time.Time          `json:"travel_end_date"`
	RequestingPerson string             `json:"requesting_person"` // full name of the person who travels
	Department       string             `json:"department"`        // form-selected department name or "Name (CODE)"
	Requesters       []NamedRequester   `json:"requesters"`        // all named requesters incl. the primary one
	TotalBudget      float64            `json:"total_budget"`
	IsDraft          bool               `json:"is_draft"`
	Signature        string             `json:"signature"`
}

func (d SubmitData) Validate() error {
	if d.RequestType != models.RequestTypeTravelOrder && d.RequestType != models.RequestTypeSeminar {
		return apperrors.NewValidationError("request_type", "unknown request type %q", d.RequestType)
	}
	if d.IsDraft {
		return nil
	}
	if d.Purpose == "" {
		return apperrors.NewValidationError("purpose", "purpose is required")
	}
	if d.Destination == "" {
		return apperrors.NewValidationError("destination", "destination is required")
	}
	if d.TravelStartDate.IsZero() || d.TravelEndDate.IsZero() {
		return apperrors.NewValidationError("travel_dates", "travel dates are required")
	}
	if d.TravelEndDate.Before(d.TravelStartDate) {
		return apperrors.NewValidationError("travel_end_date", "travel end date precedes start date")
	}
	if d.Signature == "" {
		return apperrors.NewValidationError("signature", "requester signature is required")
	}
	return nil
}

func (d SubmitData) HasBudget() bool {
	return d.TotalBudget > 0
}

type ApproveData struct {
	NextApproverID   string              `json:"next_approver_id,omitempty"`
	NextApproverRole models.ApproverRole `json:"next_approver_role,omitempty"`
	Comments         string              `json:"comments,omitempty"`
	Signature        string              `json:"signature,omitempty"`
}

func (d ApproveData) HasOverride() bool {
	return d.NextApproverID != "" && d.NextApproverRole != ""
}

type ReturnData struct {
	Reason   models.ReturnReason `json:"reason"`
	Comments string              `json:"comments,omitempty"`
}

func (d ReturnData) Validate() error {
	if !d.Reason.IsValid() {
		return apperrors.NewValidationError("reason", "unknown return reason %q", d.Reason)
	}
	return nil
}

type SkipData struct {
	Stage  models.RequestStatus `json:"stage"`
	Reason string               `json:"reason"`
}

func (d SkipData) Validate() error {
	if d.Stage != models.RequestStatusPendingAdmin && d.Stage != models.RequestStatusPendingComptroller {
		return apperrors.NewValidationError("stage", "stage %q cannot be skipped", d.Stage)
	}
	if d.Reason == "" {
		return apperrors.NewValidationError("reason", "skip reason is required")
	}
	return nil
}

type RejectData struct {
	Comments string `json:"comments,omitempty"`
}

type RequestFilter struct {
	apimodels.Pagination
	Status models.RequestStatus `json:"status,omitempty"`
	Role   models.ApproverRole  `json:"role,omitempty"` // inbox view for the given approver role
	Mine   bool                 `json:"mine,omitempty"` // requests the caller submitted or travels on
}

type RequestView struct {
	ID                  string               `json:"id"`
	RequestNumber       string               `json:"request_number"`
	RequestType         models.RequestType   `json:"request_type"`
	Status              models.RequestStatus `json:"status"`
	Title               string               `json:"title"`
	Purpose             string               `json:"purpose"`
	Destination         string               `json:"destination"`
	TravelStartDate     time.Time            `json:"travel_start_date"`
	TravelEndDate       time.Time            `json:"travel_end_date"`
	RequesterID         string               `json:"requester_id"`
	RequesterName       string               `json:"requester_name"`
	SubmitterID         string               `json:"submitter_id"`
	IsRepresentative    bool                 `json:"is_representative"`
	DepartmentID        string               `json:"department_id,omitempty"`
	DepartmentName      string               `json:"department_name,omitempty"`
	HasBudget           bool                 `json:"has_budget"`
	TotalBudget         float64              `json:"total_budget"`
	CurrentApproverRole models.ApproverRole  `json:"current_approver_role,omitempty"`
	WorkflowMetadata    dbmodels.JSONMap     `json:"workflow_metadata,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
}

func RequestConvert(rec dbmodels.Request) RequestView {
	view := RequestView{
		ID:                  rec.ID,
		RequestNumber:       rec.RequestNumber,
		RequestType:         rec.RequestType,
		Status:              rec.Status,
		Title:               rec.Title,
		Purpose:             rec.Purpose,
		Destination:         rec.Destination,
		TravelStartDate:     rec.TravelStartDate,
		TravelEndDate:       rec.TravelEndDate,
		RequesterID:         rec.RequesterID,
		RequesterName:       rec.RequesterName,
		SubmitterID:         rec.SubmitterID,
		IsRepresentative:    rec.IsRepresentative,
		HasBudget:           rec.HasBudget,
		TotalBudget:         rec.TotalBudget,
		CurrentApproverRole: rec.CurrentApproverRole,
		WorkflowMetadata:    rec.WorkflowMetadata,
		CreatedAt:           rec.CreatedAt,
	}
	if rec.DepartmentID != nil {
		view.DepartmentID = *rec.DepartmentID
	}
	if rec.Department != nil {
		view.DepartmentName = rec.Department.Name
	}
	return view
}

type HistoryView struct {
	ID             string               `json:"id"`
	Action         models.HistoryAction `json:"action"`
	ActorID        string               `json:"actor_id"`
	ActorName      string               `json:"actor_name,omitempty"`
	ActorRole      models.ApproverRole  `json:"actor_role"`
	PreviousStatus string               `json:"previous_status,omitempty"`
	NewStatus      models.RequestStatus `json:"new_status"`
	Comments       string               `json:"comments,omitempty"`
	Metadata       dbmodels.JSONMap     `json:"metadata,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

func HistoryConvert(rec dbmodels.RequestHistory) HistoryView {
	view := HistoryView{
		ID:        rec.ID,
		Action:    rec.Action,
		ActorID:   rec.ActorID,
		ActorRole: rec.ActorRole,
		NewStatus: rec.NewStatus,
		Comments:  rec.Comments,
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt,
	}
	if rec.PreviousStatus != nil {
		view.PreviousStatus = string(*rec.PreviousStatus)
	}
	if rec.Actor != nil {
		view.ActorName = rec.Actor.GetFullName()
	}
	return view
}
