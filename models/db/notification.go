package dbmodels

type NotificationType string

const (
	NotificationRequestCreated    NotificationType = "request_created"
	NotificationPendingSignature  NotificationType = "request_pending_signature"
	NotificationApprovalRequested NotificationType = "request_approval_requested"
	NotificationRequestApproved   NotificationType = "request_approved"
	NotificationRequestReturned   NotificationType = "request_returned"
	NotificationRequestRejected   NotificationType = "request_rejected"
	NotificationInviteExpired     NotificationType = "requester_invite_expired"
)

type Notification struct {
	BaseModel
	UserID    string           `gorm:"type:varchar(36);index"`
	Type      NotificationType `gorm:"type:varchar(50)"`
	Title     string           `gorm:"type:varchar(255)"`
	Message   string
	RequestID *string `gorm:"type:varchar(36)"`
	IsRead    bool
}
