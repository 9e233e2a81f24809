package dbmodels

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"travelink-backend/models"
)

type Request struct {
	BaseModel
	RequestNumber string             `gorm:"type:varchar(50);uniqueIndex"`
	RequestType   models.RequestType `gorm:"type:varchar(50)"`
	Status        models.RequestStatus
	Title         string `gorm:"type:varchar(255)"`
	Purpose       string
	Destination   string `gorm:"type:varchar(255)"`

	TravelStartDate time.Time
	TravelEndDate   time.Time

	// The requester is the person who travels; the submitter is the person
	// who filed the request. They differ on representative submissions.
	RequesterID      string `gorm:"type:varchar(36);index"`
	Requester        *User  `gorm:"foreignKey:RequesterID"`
	RequesterName    string `gorm:"type:varchar(255)"`
	RequesterIsHead  bool
	SubmitterID      string `gorm:"type:varchar(36);index"`
	Submitter        *User  `gorm:"foreignKey:SubmitterID"`
	IsRepresentative bool
	DepartmentID     *string `gorm:"type:varchar(36);index"`
	Department       *Department

	HasBudget         bool
	TotalBudget       float64
	RequiresPresident bool

	CurrentApproverRole models.ApproverRole `gorm:"type:varchar(50)"`
	// Explicit routing override chosen by the acting head ("messenger
	// routing"); consumed on the next transition.
	NextApproverID   *string              `gorm:"type:varchar(36)"`
	NextApproverRole *models.ApproverRole `gorm:"type:varchar(50)"`

	WorkflowMetadata JSONMap `gorm:"type:jsonb"`

	History     []RequestHistory      `gorm:"foreignKey:RequestID"`
	Invitations []RequesterInvitation `gorm:"foreignKey:RequestID"`
	Attachments []RequestAttachment   `gorm:"foreignKey:RequestID"`
}

func (r *Request) AfterDelete(tx *gorm.DB) (err error) {
	if r.ID == "" {
		return nil
	}
	tx.Clauses(clause.Returning{}).Where("request_id = ?", r.ID).Delete(&RequesterInvitation{})
	tx.Clauses(clause.Returning{}).Where("request_id = ?", r.ID).Delete(&RequestAttachment{})
	return
}
