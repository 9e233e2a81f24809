package dbmodels

import (
	"github.com/pkg/errors"
)

type Department struct {
	BaseModel
	Name       string  `gorm:"type:varchar(255)"`
	Code       string  `gorm:"type:varchar(50);index"`
	ParentID   *string `gorm:"type:varchar(36);index"`
	Parent     *Department
	HeadUserID *string `gorm:"type:varchar(36)"`
}

func (d *Department) Validate() error {
	if d.Name == "" {
		return errors.New("department name is required")
	}
	return nil
}

func (d Department) HasParent() bool {
	return d.ParentID != nil && *d.ParentID != ""
}
