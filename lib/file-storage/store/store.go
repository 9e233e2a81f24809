package attachmentstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "travelink-backend/models/db"
)

type Provider interface {
	Save(rec dbmodels.RequestAttachment) (id string, err error)
	GetByID(id string) (rec *dbmodels.RequestAttachment, err error)
	ListByRequest(requestID string) (list []dbmodels.RequestAttachment, err error)
	Delete(id string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{db: DB}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Save(rec dbmodels.RequestAttachment) (id string, err error) {
	err = i.db.Save(&rec).Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (rec *dbmodels.RequestAttachment, err error) {
	err = i.db.Model(dbmodels.RequestAttachment{}).
		Where("id = ?", id).
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

func (i impl) ListByRequest(requestID string) (list []dbmodels.RequestAttachment, err error) {
	err = i.db.Model(dbmodels.RequestAttachment{}).
		Where("request_id = ?", requestID).
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Delete(id string) error {
	return i.db.
		Where("id = ?", id).
		Delete(&dbmodels.RequestAttachment{}).
		Error
}
