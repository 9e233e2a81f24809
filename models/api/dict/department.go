package dictapimodels

import (
	dbmodels "travelink-backend/models/db"
)

type DepartmentView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code,omitempty"`
	ParentID   string `json:"parent_id,omitempty"`
	HeadUserID string `json:"head_user_id,omitempty"`
}

func DepartmentConvert(rec dbmodels.Department) DepartmentView {
	view := DepartmentView{
		ID:   rec.ID,
		Name: rec.Name,
		Code: rec.Code,
	}
	if rec.ParentID != nil {
		view.ParentID = *rec.ParentID
	}
	if rec.HeadUserID != nil {
		view.HeadUserID = *rec.HeadUserID
	}
	return view
}
