package group

import (
	"errors"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/part"
)

// Lookup and mapping errors shared with the part and contract packages.
var (
	ErrUnknownImport           = part.ErrUnknownImport
	ErrUnknownExport           = part.ErrUnknownExport
	ErrUnknownPluginType       = part.ErrUnknownPluginType
	ErrCannotMapExportToImport = contract.ErrCannotMapExportToImport
)

// Definition errors
var (
	ErrEmptyGroupName       = errors.New("group name cannot be empty")
	ErrNilPart              = errors.New("part cannot be nil")
	ErrDuplicatePart        = errors.New("duplicate part")
	ErrDuplicateGroupImport = errors.New("duplicate group import")
	ErrGroupExportDefined   = errors.New("group export already defined")
	ErrImportAlreadyWired   = errors.New("part import already wired")
	ErrForeignDefinition    = errors.New("definition belongs to another group")
	ErrUnknownInsertPoint   = errors.New("unknown insert point")
	ErrNoGroupExport        = errors.New("group has no export")
	ErrGroupRegistered      = errors.New("group builder already registered")
)
