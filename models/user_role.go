package models

type UserRole string

const (
	UserRoleFaculty   UserRole = "FACULTY"
	UserRoleAdmin     UserRole = "ADMIN"
	UserRoleSuperUser UserRole = "SUPER_ADMIN"
)

var roleHumanName = map[UserRole]string{
	UserRoleFaculty:   "Faculty / Staff",
	UserRoleAdmin:     "Transportation Management",
	UserRoleSuperUser: "System administrator",
}

func (r UserRole) ToHuman() string {
	if human, exist := roleHumanName[r]; exist {
		return human
	}
	return string(r)
}

const SystemUser = "system"

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

type ExecType string

const (
	ExecTypeVp        ExecType = "vp"
	ExecTypePresident ExecType = "president"
)
