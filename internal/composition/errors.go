package composition

import (
	"errors"

	"github.com/zjrosen/composer/internal/group"
)

// Lookup and mapping errors surfaced from group resolution.
var (
	ErrUnknownImport           = group.ErrUnknownImport
	ErrUnknownExport           = group.ErrUnknownExport
	ErrNoGroupExport           = group.ErrNoGroupExport
	ErrCannotMapExportToImport = group.ErrCannotMapExportToImport
)

// Layer errors
var (
	ErrInvalidGroupCompositionID = errors.New("invalid group composition id")
	ErrNilGroup                  = errors.New("group definition cannot be nil")
	ErrUnknownGroup              = errors.New("unknown group")
	ErrDuplicateGroup            = errors.New("group id already in use")
	ErrImportNotOwned            = errors.New("import not owned by group")
	ErrImportAlreadyConnected    = errors.New("import already connected")
	ErrSelfConnection            = errors.New("group cannot satisfy its own import")
	ErrInsertPointFull           = errors.New("insert point capacity reached")
	ErrInconsistentState         = errors.New("inconsistent composition state")
)
