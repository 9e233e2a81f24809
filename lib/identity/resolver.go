package identity

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"travelink-backend/models"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

// Directory is the user lookup the resolver runs against. The production
// implementation queries the users table; tests supply a fixture slice.
type Directory interface {
	CandidatesFor(tokens []string) ([]dbmodels.User, error)
}

type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchFlexible
	MatchPartial
	MatchExact
)

// Resolution is the canonical requester identity for a submission.
type Resolution struct {
	RequesterID           string
	RequesterName         string
	RequesterDepartmentID *string
	RequesterIsHead       bool
	Match                 MatchKind
	// FellBack is set when a draft could not be resolved and the submitter's
	// identity was used provisionally; it must be re-resolved before final
	// submission.
	FellBack bool
}

type Provider interface {
	Resolve(requestingPerson string, submitter dbmodels.User, requestType models.RequestType, isDraft bool) (Resolution, error)
}

var Instance Provider

func NewHandler(directory Directory) {
	Instance = impl{directory: directory}
}

type impl struct {
	directory Directory
}

func fromUser(user dbmodels.User, match MatchKind) Resolution {
	return Resolution{
		RequesterID:           user.ID,
		RequesterName:         user.GetFullName(),
		RequesterDepartmentID: user.DepartmentID,
		RequesterIsHead:       user.IsHead,
		Match:                 match,
	}
}

func (i impl) Resolve(requestingPerson string, submitter dbmodels.User, requestType models.RequestType, isDraft bool) (Resolution, error) {
	// Seminar applications are always filed by the participant themselves.
	if requestType == models.RequestTypeSeminar {
		return fromUser(submitter, MatchExact), nil
	}
	name := NormalizeName(requestingPerson)
	if name == "" || strings.EqualFold(name, NormalizeName(submitter.Name)) {
		return fromUser(submitter, MatchExact), nil
	}

	candidates, err := i.directory.CandidatesFor(strings.Fields(name))
	if err != nil {
		return Resolution{}, errors.Wrap(err, "requester directory lookup failed")
	}
	if best, kind := PickBest(name, candidates); kind != MatchNone {
		return fromUser(best, kind), nil
	}

	if !isDraft {
		// Falling back to the submitter here would misroute the request
		// into the wrong inbox, so an unresolved identity is fatal.
		return Resolution{}, errors.Wrapf(apperrors.ErrNotFound, "requester %q not found in the user directory", requestingPerson)
	}
	log.WithField("requesting_person", requestingPerson).
		WithField("submitter_id", submitter.ID).
		Warn("draft requester unresolved, falling back to submitter identity")
	res := fromUser(submitter, MatchNone)
	res.FellBack = true
	return res, nil
}

// NormalizeName collapses internal whitespace and trims the ends; all
// comparisons are case-insensitive on the normalized form.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// PickBest scores every candidate and returns the strongest match:
// exact beats partial beats flexible, and within the same kind a candidate
// with a department wins over one without.
func PickBest(name string, candidates []dbmodels.User) (dbmodels.User, MatchKind) {
	var best dbmodels.User
	bestKind := MatchNone
	for _, cand := range candidates {
		kind := matchKind(name, cand.Name)
		if kind == MatchNone {
			continue
		}
		if kind > bestKind || (kind == bestKind && preferredOver(cand, best)) {
			best = cand
			bestKind = kind
		}
	}
	return best, bestKind
}

func preferredOver(cand, current dbmodels.User) bool {
	return cand.DepartmentID != nil && current.DepartmentID == nil
}

func matchKind(wanted, candidateName string) MatchKind {
	w := strings.ToLower(NormalizeName(wanted))
	c := strings.ToLower(NormalizeName(candidateName))
	if w == "" || c == "" {
		return MatchNone
	}
	if w == c {
		return MatchExact
	}
	if strings.Contains(c, w) {
		return MatchPartial
	}
	// Flexible match: the first and the last name token must each appear
	// somewhere in the candidate's name.
	tokens := strings.Fields(w)
	if len(tokens) < 2 {
		return MatchNone
	}
	first, last := tokens[0], tokens[len(tokens)-1]
	if strings.Contains(c, first) && strings.Contains(c, last) {
		return MatchFlexible
	}
	return MatchNone
}
