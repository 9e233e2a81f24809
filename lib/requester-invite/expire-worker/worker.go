package inviteexpireworker

import (
	"context"
	"time"

	"travelink-backend/db"
	"travelink-backend/lib/notification"
	requesthistory "travelink-backend/lib/request-history"
	requeststore "travelink-backend/lib/request/store"
	requesterinvitestore "travelink-backend/lib/requester-invite/store"
	baseworker "travelink-backend/lib/utils/base-worker"
	"travelink-backend/lib/utils/helpers"
	"travelink-backend/models"
	dbmodels "travelink-backend/models/db"
)

const sweepBatchSize = 200

// StartWorker periodically marks pending invitations past their deadline as
// expired. Expiry itself is derived from ExpiresAt everywhere it matters; the
// sweep only materializes the status and tells the submitter.
func StartWorker(ctx context.Context) {
	i := &impl{
		BaseImpl:     *baseworker.NewInstance("InviteExpireWorker", 30*time.Second, 60*time.Minute),
		inviteStore:  requesterinvitestore.NewInstance(db.DB),
		requestStore: requeststore.NewInstance(db.DB),
	}
	go i.Run(ctx, i.handle)
}

type impl struct {
	baseworker.BaseImpl
	inviteStore  requesterinvitestore.Provider
	requestStore requeststore.Provider
}

func (i impl) handle(ctx context.Context) {
	logger := i.GetLogger()
	list, err := i.inviteStore.ListExpiredPending(time.Now(), sweepBatchSize)
	if err != nil {
		logger.WithError(err).Error("failed to list expired pending invitations")
		return
	}
	for _, invite := range list {
		if helpers.IsContextDone(ctx) {
			break
		}
		updMap := map[string]interface{}{
			"status": models.InvitationStatusExpired,
		}
		err = i.inviteStore.Update(invite.ID, updMap)
		if err != nil {
			logger.
				WithError(err).
				WithField("invitation_id", invite.ID).
				Error("failed to mark the invitation as expired")
			continue
		}
		i.recordExpiry(invite)
	}
}

func (i impl) recordExpiry(invite dbmodels.RequesterInvitation) {
	if requesthistory.Instance != nil {
		requesthistory.Instance.Append(requesthistory.Entry{
			RequestID: invite.RequestID,
			Action:    models.HistoryActionInviteExpired,
			ActorID:   models.SystemUser,
			Metadata: dbmodels.JSONMap{
				"invitation_id": invite.ID,
				"email":         invite.Email,
			},
		})
	}
	if notification.Instance == nil {
		return
	}
	rec, err := i.requestStore.GetByID(invite.RequestID)
	if err != nil || rec == nil {
		return
	}
	notification.Instance.Notify(rec.SubmitterID, dbmodels.NotificationInviteExpired,
		"Requester invitation expired",
		invite.Name+" has not confirmed participation in request "+rec.RequestNumber,
		&rec.ID)
}
