package requesthistorystore

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbmodels "travelink-backend/models/db"
)

// The history table is append-only: no Update or Delete here on purpose.
type Provider interface {
	Create(rec dbmodels.RequestHistory) (id string, err error)
	ListByRequest(requestID string) (list []dbmodels.RequestHistory, err error)
	ListForPeriod(from, to string) (list []dbmodels.RequestHistory, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.RequestHistory) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) ListByRequest(requestID string) (list []dbmodels.RequestHistory, err error) {
	err = i.db.Model(dbmodels.RequestHistory{}).
		Where("request_id = ?", requestID).
		Preload(clause.Associations).
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListForPeriod(from, to string) (list []dbmodels.RequestHistory, err error) {
	tx := i.db.Model(dbmodels.RequestHistory{}).
		Preload(clause.Associations)
	if from != "" {
		tx = tx.Where("created_at >= ?", from)
	}
	if to != "" {
		tx = tx.Where("created_at <= ?", to)
	}
	err = tx.Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
