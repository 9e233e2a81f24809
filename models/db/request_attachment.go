package dbmodels

type AttachmentType string

const (
	AttachmentSupportingDoc  AttachmentType = "supporting_doc"
	AttachmentSignatureImage AttachmentType = "signature_image"
)

// RequestAttachment describes an uploaded file; the content itself lives in
// object storage under the attachment id.
type RequestAttachment struct {
	BaseModel
	RequestID    string         `gorm:"type:varchar(36);index"`
	Name         string         `gorm:"type:varchar(255)"`
	Type         AttachmentType `gorm:"type:varchar(50)"`
	ContentType  string         `gorm:"type:varchar(100)"`
	UploadedByID string         `gorm:"type:varchar(36)"`
}
