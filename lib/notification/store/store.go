package notificationstore

import (
	"gorm.io/gorm"

	dbmodels "travelink-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.Notification) (id string, err error)
	ListByUser(userID string, unreadOnly bool, page, limit int) (list []dbmodels.Notification, err error)
	MarkRead(userID, id string) error
	MarkAllRead(userID string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Notification) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) ListByUser(userID string, unreadOnly bool, page, limit int) (list []dbmodels.Notification, err error) {
	tx := i.db.Model(dbmodels.Notification{}).
		Where("user_id = ?", userID)
	if unreadOnly {
		tx = tx.Where("is_read = false")
	}
	err = tx.Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) MarkRead(userID, id string) error {
	return i.db.
		Model(&dbmodels.Notification{}).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Update("is_read", true).
		Error
}

func (i impl) MarkAllRead(userID string) error {
	return i.db.
		Model(&dbmodels.Notification{}).
		Where("user_id = ?", userID).
		Where("is_read = false").
		Update("is_read", true).
		Error
}
