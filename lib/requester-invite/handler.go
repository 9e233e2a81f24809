package requesterinvite

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"travelink-backend/config"
	"travelink-backend/db"
	requesthistory "travelink-backend/lib/request-history"
	store "travelink-backend/lib/requester-invite/store"
	"travelink-backend/lib/smtp"
	usersstore "travelink-backend/lib/users/store"
	initchecker "travelink-backend/lib/utils/init-checker"
	"travelink-backend/models"
	requestapimodels "travelink-backend/models/api/request"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

// ReconcileResult summarizes a diff-based invitation reconciliation.
type ReconcileResult struct {
	Created       []string
	Deleted       []string
	Kept          int
	AutoConfirmed bool
}

func (r ReconcileResult) Changed() bool {
	return len(r.Created) > 0 || len(r.Deleted) > 0
}

type Provider interface {
	Reconcile(requestID string, submitter dbmodels.User, requesters []requestapimodels.NamedRequester) (result ReconcileResult, err error)
	CanFinalize(requestID string, newlyInvited []string) error
	Redeem(data requestapimodels.RedeemData) (view requestapimodels.InvitationView, err error)
	Decline(token string) error
	ListByRequest(requestID string) (list []requestapimodels.InvitationView, err error)
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

// NewWithTx binds the coordinator to a transaction so invitation rows commit
// together with the submission that produced them.
func NewWithTx(tx *gorm.DB) Provider {
	return impl{
		store:      store.NewInstance(tx),
		usersStore: usersstore.NewInstance(tx),
	}
}

type impl struct {
	store      store.Provider
	usersStore usersstore.Provider
}

// Reconcile diffs the named-requester list against existing invitations:
// removed entries are deleted, new entries get a fresh invitation, unchanged
// entries are left alone. Repeated draft edits therefore never orphan or
// duplicate invitations.
func (i impl) Reconcile(requestID string, submitter dbmodels.User, requesters []requestapimodels.NamedRequester) (result ReconcileResult, err error) {
	logger := log.WithField("request_id", requestID)
	emailMap := map[string]int{} // 0 keep / 1 add / -1 remove
	currentMap := map[string]dbmodels.RequesterInvitation{}
	nameMap := map[string]string{}
	currentList, err := i.store.ListByRequest(requestID)
	if err != nil {
		return result, err
	}
	for _, current := range currentList {
		key := normalizeEmail(current.Email)
		emailMap[key] = -1
		currentMap[key] = current
	}

	for _, requester := range requesters {
		key := normalizeEmail(requester.Email)
		if key == "" {
			return result, apperrors.NewValidationError("requesters", "requester %q has no email", requester.Name)
		}
		nameMap[key] = requester.Name
		what, ok := emailMap[key]
		if ok {
			if what < 0 {
				emailMap[key] = 0
			} else {
				return result, apperrors.NewValidationError("requesters", "requester %q is listed more than once", requester.Email)
			}
		} else {
			emailMap[key] = 1
		}
	}

	for email, what := range emailMap {
		switch what {
		case -1:
			currentRec, ok := currentMap[email]
			if !ok {
				continue
			}
			err = i.store.Delete(currentRec.ID)
			if err != nil {
				return result, err
			}
			result.Deleted = append(result.Deleted, currentRec.Email)
		case 0:
			result.Kept++
		case 1:
			rec, autoConfirmed, cErr := i.createInvitation(requestID, submitter, email, nameMap[email])
			if cErr != nil {
				return result, cErr
			}
			result.Created = append(result.Created, rec.Email)
			result.AutoConfirmed = result.AutoConfirmed || autoConfirmed
			if !autoConfirmed {
				i.sendInviteEmail(rec)
			}
		}
	}
	if result.Changed() {
		logger.
			WithField("created", len(result.Created)).
			WithField("deleted", len(result.Deleted)).
			Info("requester invitations reconciled")
	}
	return result, nil
}

func (i impl) createInvitation(requestID string, submitter dbmodels.User, email, name string) (rec dbmodels.RequesterInvitation, autoConfirmed bool, err error) {
	token, err := newToken()
	if err != nil {
		return rec, false, err
	}
	rec = dbmodels.RequesterInvitation{
		RequestID:   requestID,
		Email:       email,
		Name:        name,
		InvitedByID: submitter.ID,
		Status:      models.InvitationStatusPending,
		Token:       token,
		ExpiresAt:   time.Now().AddDate(0, 0, invitationTTLDays()),
	}
	user, err := i.usersStore.GetByEmail(email)
	if err != nil {
		return rec, false, err
	}
	if user != nil {
		rec.UserID = &user.ID
	}
	// The submitter among the named requesters confirms implicitly.
	if normalizeEmail(submitter.Email) == email {
		now := time.Now()
		rec.Status = models.InvitationStatusConfirmed
		rec.ConfirmedAt = &now
		rec.Signature = submitter.Signature
		autoConfirmed = true
	}
	id, err := i.store.Create(rec)
	if err != nil {
		return rec, false, err
	}
	rec.ID = id
	return rec, autoConfirmed, nil
}

// CanFinalize gates final submission: every named requester must either be
// confirmed or already hold a non-expired pending invitation from an earlier
// draft edit. newlyInvited carries the emails the reconcile of this very
// submission created invitations for; those requesters have had no chance to
// confirm yet and block until they do.
func (i impl) CanFinalize(requestID string, newlyInvited []string) error {
	list, err := i.store.ListByRequest(requestID)
	if err != nil {
		return err
	}
	fresh := map[string]bool{}
	for _, email := range newlyInvited {
		fresh[normalizeEmail(email)] = true
	}
	now := time.Now()
	blocking := 0
	for _, rec := range list {
		if rec.Status == models.InvitationStatusConfirmed {
			continue
		}
		if rec.Status == models.InvitationStatusPending && !rec.IsExpired(now) && !fresh[normalizeEmail(rec.Email)] {
			continue
		}
		blocking++
	}
	if blocking > 0 {
		return apperrors.NewValidationError("requesters", "%d requester(s) have not been confirmed", blocking)
	}
	return nil
}

// Redeem confirms an invitation by token. Redeeming an already-confirmed
// token returns the same confirmed view; an expired token always fails.
func (i impl) Redeem(data requestapimodels.RedeemData) (view requestapimodels.InvitationView, err error) {
	if err = data.Validate(); err != nil {
		return view, err
	}
	rec, err := i.store.GetByToken(data.Token)
	if err != nil {
		return view, err
	}
	if rec == nil {
		return view, errors.Wrap(apperrors.ErrNotFound, "invitation not found")
	}
	if rec.IsExpired(time.Now()) {
		return view, errors.Wrap(apperrors.ErrInviteExpired, "invitation token has expired")
	}
	if rec.Status == models.InvitationStatusDeclined {
		return view, errors.Wrap(apperrors.ErrInviteDeclined, "invitation was declined")
	}
	if rec.Status == models.InvitationStatusConfirmed {
		return requestapimodels.InvitationConvert(*rec), nil
	}
	now := time.Now()
	updMap := map[string]interface{}{
		"status":       models.InvitationStatusConfirmed,
		"signature":    data.Signature,
		"confirmed_at": &now,
	}
	err = i.store.Update(rec.ID, updMap)
	if err != nil {
		return view, err
	}
	rec.Status = models.InvitationStatusConfirmed
	rec.Signature = data.Signature
	rec.ConfirmedAt = &now
	i.auditRedemption(*rec, models.HistoryActionSigned, "requester confirmed participation")
	return requestapimodels.InvitationConvert(*rec), nil
}

func (i impl) Decline(token string) error {
	rec, err := i.store.GetByToken(token)
	if err != nil {
		return err
	}
	if rec == nil {
		return errors.Wrap(apperrors.ErrNotFound, "invitation not found")
	}
	if rec.IsExpired(time.Now()) {
		return errors.Wrap(apperrors.ErrInviteExpired, "invitation token has expired")
	}
	switch rec.Status {
	case models.InvitationStatusDeclined:
		return nil
	case models.InvitationStatusConfirmed:
		return errors.Wrap(apperrors.ErrConflict, "invitation is already confirmed")
	}
	err = i.store.Update(rec.ID, map[string]interface{}{
		"status": models.InvitationStatusDeclined,
	})
	if err != nil {
		return err
	}
	rec.Status = models.InvitationStatusDeclined
	i.auditRedemption(*rec, models.HistoryActionRejected, "requester declined participation")
	return nil
}

func (i impl) ListByRequest(requestID string) (list []requestapimodels.InvitationView, err error) {
	recList, err := i.store.ListByRequest(requestID)
	if err != nil {
		return nil, err
	}
	result := make([]requestapimodels.InvitationView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, requestapimodels.InvitationConvert(rec))
	}
	return result, nil
}

func (i impl) auditRedemption(rec dbmodels.RequesterInvitation, action models.HistoryAction, comment string) {
	if requesthistory.Instance == nil {
		return
	}
	actorID := models.SystemUser
	if rec.UserID != nil {
		actorID = *rec.UserID
	}
	requesthistory.Instance.Append(requesthistory.Entry{
		RequestID: rec.RequestID,
		Action:    action,
		ActorID:   actorID,
		ActorRole: models.ApproverRoleRequester,
		Comments:  comment,
		Metadata: dbmodels.JSONMap{
			"invitation_id": rec.ID,
			"email":         rec.Email,
			"status":        string(rec.Status),
		},
	})
}

func (i impl) sendInviteEmail(rec dbmodels.RequesterInvitation) {
	if smtp.Instance == nil {
		return
	}
	link := fmt.Sprintf("%s/requesters/confirm?token=%s", config.Conf.App.PublicURL, rec.Token)
	message := fmt.Sprintf("You were named as a requester on a travel order.\r\n"+
		"Please confirm your participation within %d days:\r\n%s", invitationTTLDays(), link)
	err := smtp.Instance.SendEMail(rec.Email, "Travel order confirmation", message)
	if err != nil {
		log.WithError(err).
			WithField("request_id", rec.RequestID).
			WithField("email", rec.Email).
			Error("failed to send invitation email")
	}
}

func invitationTTLDays() int {
	if config.Conf != nil && config.Conf.Workflow.InvitationTTLDays > 0 {
		return config.Conf.Workflow.InvitationTTLDays
	}
	return 7
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	_, err := rand.Read(buf)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate invitation token")
	}
	return hex.EncodeToString(buf), nil
}
