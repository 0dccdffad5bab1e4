package part

import "errors"

// Registration errors
var (
	ErrInvalidRegistrationID    = errors.New("invalid registration id")
	ErrDuplicateRegistration    = errors.New("duplicate registration")
	ErrForeignMember            = errors.New("member is not declared by the part type")
	ErrInvalidScheduleMember    = errors.New("invalid schedule member")
	ErrUnknownImport            = errors.New("unknown import definition")
	ErrUnknownExport            = errors.New("unknown export definition")
	ErrUnknownScheduleAction    = errors.New("unknown schedule action")
	ErrUnknownScheduleCondition = errors.New("unknown schedule condition")
	ErrUnknownPluginType        = errors.New("unknown plugin type")
)
