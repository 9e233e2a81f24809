package departmentstore

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbmodels "travelink-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.Department) (id string, err error)
	Update(id string, updMap map[string]interface{}) error
	GetByID(id string) (rec *dbmodels.Department, err error)
	GetByName(name string) (rec *dbmodels.Department, err error)
	GetByCode(code string) (rec *dbmodels.Department, err error)
	FindPartial(term string) (list []dbmodels.Department, err error)
	List() (list []dbmodels.Department, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Department) (id string, err error) {
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
		Model(&dbmodels.Department{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
}

func (i impl) GetByID(id string) (rec *dbmodels.Department, err error) {
	err = i.db.Model(dbmodels.Department{}).
		Where("id = ?", id).
		Preload(clause.Associations).
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

func (i impl) GetByName(name string) (rec *dbmodels.Department, err error) {
	err = i.db.Model(dbmodels.Department{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
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

func (i impl) GetByCode(code string) (rec *dbmodels.Department, err error) {
	err = i.db.Model(dbmodels.Department{}).
		Where("LOWER(code) = ?", strings.ToLower(strings.TrimSpace(code))).
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

func (i impl) FindPartial(term string) (list []dbmodels.Department, err error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	err = i.db.Model(dbmodels.Department{}).
		Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern).
		Order("name").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) List() (list []dbmodels.Department, err error) {
	err = i.db.Model(dbmodels.Department{}).
		Order("name").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
