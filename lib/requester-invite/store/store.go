package requesterinvitestore

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"travelink-backend/models"
	dbmodels "travelink-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.RequesterInvitation) (id string, err error)
	Update(id string, updMap map[string]interface{}) error
	Delete(id string) error
	GetByToken(token string) (rec *dbmodels.RequesterInvitation, err error)
	ListByRequest(requestID string) (list []dbmodels.RequesterInvitation, err error)
	ListExpiredPending(now time.Time, limit int) (list []dbmodels.RequesterInvitation, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.RequesterInvitation) (id string, err error) {
	err = i.db.
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	return i.db.
		Model(&dbmodels.RequesterInvitation{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
}

func (i impl) Delete(id string) error {
	return i.db.
		Where("id = ?", id).
		Delete(&dbmodels.RequesterInvitation{}).
		Error
}

func (i impl) GetByToken(token string) (rec *dbmodels.RequesterInvitation, err error) {
	err = i.db.Model(dbmodels.RequesterInvitation{}).
		Where("token = ?", token).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (i impl) ListExpiredPending(now time.Time, limit int) (list []dbmodels.RequesterInvitation, err error) {
	err = i.db.Model(dbmodels.RequesterInvitation{}).
		Where("status = ?", models.InvitationStatusPending).
		Where("expires_at < ?", now).
		Limit(limit).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListByRequest(requestID string) (list []dbmodels.RequesterInvitation, err error) {
	err = i.db.Model(dbmodels.RequesterInvitation{}).
		Where("request_id = ?", requestID).
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
