package departmentprovider

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"travelink-backend/db"
	store "travelink-backend/lib/dicts/department/store"
	initchecker "travelink-backend/lib/utils/init-checker"
	dictapimodels "travelink-backend/models/api/dict"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

// ResolveInput carries everything known about a submission's department
// before the record of routing is fixed.
type ResolveInput struct {
	RequesterDepartmentID *string
	FormSelected          string
	SubmitterDepartmentID *string
	IsRepresentative      bool
	IsDraft               bool
}

type Provider interface {
	Get(id string) (item dictapimodels.DepartmentView, err error)
	List() (list []dictapimodels.DepartmentView, err error)
	Resolve(in ResolveInput) (rec *dbmodels.Department, err error)
}

var Instance Provider

func NewHandler() {
	instance := impl{
		store: store.NewInstance(db.DB),
	}
	initchecker.CheckInit(
		"store", instance.store,
	)
	Instance = instance
}

type impl struct {
	store store.Provider
}

func (i impl) Get(id string) (item dictapimodels.DepartmentView, err error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		return dictapimodels.DepartmentView{}, err
	}
	if rec == nil {
		return dictapimodels.DepartmentView{}, errors.Wrap(apperrors.ErrNotFound, "department not found")
	}
	return dictapimodels.DepartmentConvert(*rec), nil
}

func (i impl) List() (list []dictapimodels.DepartmentView, err error) {
	recList, err := i.store.List()
	if err != nil {
		return nil, err
	}
	result := make([]dictapimodels.DepartmentView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, dictapimodels.DepartmentConvert(rec))
	}
	return result, nil
}

// Resolve determines the department of record for routing. The requester's
// own department is authoritative; the form selection only double-checks it
// for representative submissions. Lookups by the form value run exact name,
// then code, then partial. The submitter's department is the last resort and
// only for representative submissions.
func (i impl) Resolve(in ResolveInput) (rec *dbmodels.Department, err error) {
	if in.RequesterDepartmentID != nil && *in.RequesterDepartmentID != "" {
		rec, err = i.store.GetByID(*in.RequesterDepartmentID)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			if in.IsRepresentative && in.FormSelected != "" && !MatchesSelection(*rec, in.FormSelected) {
				return nil, apperrors.NewValidationError("department",
					"selected department %q does not match the requester's department %q", in.FormSelected, rec.Name)
			}
			return rec, nil
		}
	}

	if in.FormSelected != "" {
		rec, err = i.lookupBySelection(in.FormSelected)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}

	if in.IsRepresentative && in.SubmitterDepartmentID != nil && *in.SubmitterDepartmentID != "" {
		rec, err = i.store.GetByID(*in.SubmitterDepartmentID)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}

	if in.IsDraft {
		return nil, nil
	}
	return nil, apperrors.NewValidationError("department", "no department could be resolved for the request")
}

func (i impl) lookupBySelection(selected string) (*dbmodels.Department, error) {
	name, code := SplitSelection(selected)
	rec, err := i.store.GetByName(name)
	if err != nil || rec != nil {
		return rec, err
	}
	if code != "" {
		rec, err = i.store.GetByCode(code)
		if err != nil || rec != nil {
			return rec, err
		}
	}
	rec, err = i.store.GetByCode(name)
	if err != nil || rec != nil {
		return rec, err
	}
	list, err := i.store.FindPartial(name)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return &list[0], nil
	}
	return nil, nil
}

var selectionRe = regexp.MustCompile(`^(.*\S)\s*\(([^()]+)\)\s*$`)

// SplitSelection parses a form value like "College of Engineering (COE)"
// into its name and code parts. A plain value comes back with an empty code.
func SplitSelection(selected string) (name, code string) {
	selected = strings.TrimSpace(selected)
	if m := selectionRe.FindStringSubmatch(selected); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return selected, ""
}

// MatchesSelection reports whether a form-selected value refers to the given
// department by name, by "Name (CODE)" pattern, by code, or by a
// case-insensitive partial match on either.
func MatchesSelection(rec dbmodels.Department, selected string) bool {
	name, code := SplitSelection(selected)
	sName := strings.ToLower(name)
	recName := strings.ToLower(strings.TrimSpace(rec.Name))
	recCode := strings.ToLower(strings.TrimSpace(rec.Code))
	if sName == recName || sName == recCode {
		return true
	}
	if code != "" {
		sCode := strings.ToLower(code)
		if sCode == recCode || sCode == recName {
			return true
		}
	}
	if sName != "" && (strings.Contains(recName, sName) || strings.Contains(sName, recName)) {
		return true
	}
	if recCode != "" && sName != "" && (strings.Contains(recCode, sName) || strings.Contains(sName, recCode)) {
		return true
	}
	return false
}
