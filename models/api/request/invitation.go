package requestapimodels

import (
	"time"

	"travelink-backend/models"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

type InviteData struct {
	Requesters []NamedRequester `json:"requesters"`
}

func (d InviteData) Validate() error {
	for _, r := range d.Requesters {
		if r.Email == "" {
			return apperrors.NewValidationError("email", "requester email is required")
		}
	}
	return nil
}

type RedeemData struct {
	Token     string `json:"token"`
	Signature string `json:"signature"`
}

func (d RedeemData) Validate() error {
	if d.Token == "" {
		return apperrors.NewValidationError("token", "token is required")
	}
	if d.Signature == "" {
		return apperrors.NewValidationError("signature", "signature is required")
	}
	return nil
}

type DeclineData struct {
	Token string `json:"token"`
}

func (d DeclineData) Validate() error {
	if d.Token == "" {
		return apperrors.NewValidationError("token", "token is required")
	}
	return nil
}

type InvitationView struct {
	ID          string                  `json:"id"`
	RequestID   string                  `json:"request_id"`
	Email       string                  `json:"email"`
	Name        string                  `json:"name,omitempty"`
	Status      models.InvitationStatus `json:"status"`
	ExpiresAt   time.Time               `json:"expires_at"`
	ConfirmedAt *time.Time              `json:"confirmed_at,omitempty"`
}

func InvitationConvert(rec dbmodels.RequesterInvitation) InvitationView {
	return InvitationView{
		ID:          rec.ID,
		RequestID:   rec.RequestID,
		Email:       rec.Email,
		Name:        rec.Name,
		Status:      rec.Status,
		ExpiresAt:   rec.ExpiresAt,
		ConfirmedAt: rec.ConfirmedAt,
	}
}
