package notification

import (
	log "github.com/sirupsen/logrus"

	"travelink-backend/db"
	store "travelink-backend/lib/notification/store"
	usersstore "travelink-backend/lib/users/store"
	initchecker "travelink-backend/lib/utils/init-checker"
	"travelink-backend/models"
	dbmodels "travelink-backend/models/db"
)

type Provider interface {
	// Notify and NotifyRole are best-effort: failures are logged and never
	// block the transition that triggered them.
	Notify(userID string, nType dbmodels.NotificationType, title, message string, requestID *string)
	NotifyRole(role models.ApproverRole, nType dbmodels.NotificationType, title, message string, requestID *string)
	List(userID string, unreadOnly bool, page, limit int) (list []dbmodels.Notification, err error)
	MarkRead(userID, id string) error
	MarkAllRead(userID string) error
}

var Instance Provider

func NewHandler() {
	instance := impl{
		store:      store.NewInstance(db.DB),
		usersStore: usersstore.NewInstance(db.DB),
	}
	initchecker.CheckInit(
		"store", instance.store,
		"usersStore", instance.usersStore,
	)
	Instance = instance
}

type impl struct {
	store      store.Provider
	usersStore usersstore.Provider
}

func (i impl) Notify(userID string, nType dbmodels.NotificationType, title, message string, requestID *string) {
	if userID == "" || userID == models.SystemUser {
		return
	}
	rec := dbmodels.Notification{
		UserID:    userID,
		Type:      nType,
		Title:     title,
		Message:   message,
		RequestID: requestID,
	}
	_, err := i.store.Create(rec)
	if err != nil {
		log.WithError(err).
			WithField("user_id", userID).
			WithField("type", nType).
			Error("failed to create notification")
	}
}

func (i impl) NotifyRole(role models.ApproverRole, nType dbmodels.NotificationType, title, message string, requestID *string) {
	userList, err := i.usersStore.ListByApproverRole(role)
	if err != nil {
		log.WithError(err).
			WithField("role", role).
			Error("failed to resolve notification recipients")
		return
	}
	for _, user := range userList {
		i.Notify(user.ID, nType, title, message, requestID)
	}
}

func (i impl) List(userID string, unreadOnly bool, page, limit int) (list []dbmodels.Notification, err error) {
	return i.store.ListByUser(userID, unreadOnly, page, limit)
}

func (i impl) MarkRead(userID, id string) error {
	return i.store.MarkRead(userID, id)
}

func (i impl) MarkAllRead(userID string) error {
	return i.store.MarkAllRead(userID)
}
