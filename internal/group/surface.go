package group

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/schedule"
)

// ExportDefinition is the externally visible export of a group: a contract name backed by
// a set of part exports.
type ExportDefinition struct {
	group           part.GroupRegistrationID
	contractName    string
	providedExports []part.ExportRegistrationID
}

// NewExportDefinition creates a group export.
func NewExportDefinition(group part.GroupRegistrationID, contractName string, provided ...part.ExportRegistrationID) (*ExportDefinition, error) {
	if group.IsZero() {
		return nil, ErrEmptyGroupName
	}
	if contractName == "" {
		return nil, contract.ErrEmptyContractName
	}
	if len(provided) == 0 {
		return nil, fmt.Errorf("group export %q of %s: %w: no part exports", contractName, group, ErrUnknownExport)
	}
	return &ExportDefinition{
		group:           group,
		contractName:    contractName,
		providedExports: sortedUnique(provided, part.ExportRegistrationID.Compare),
	}, nil
}

func (e *ExportDefinition) ContainingGroup() part.GroupRegistrationID { return e.group }
func (e *ExportDefinition) ContractName() string                      { return e.contractName }

// ProvidedExports returns the backing part exports in id order.
func (e *ExportDefinition) ProvidedExports() []part.ExportRegistrationID { return e.providedExports }

// Equal compares group, contract name and provided exports.
func (e *ExportDefinition) Equal(o *ExportDefinition) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.group == o.group && e.contractName == o.contractName && slices.Equal(e.providedExports, o.providedExports)
}

func (e *ExportDefinition) String() string {
	return e.group.String() + "/" + e.contractName
}

// ImportDefinition is one externally visible import of a group: a contract name, the part
// imports it satisfies, and an optional schedule insert point for the exporter's schedule.
type ImportDefinition struct {
	group          part.GroupRegistrationID
	contractName   string
	insertPoint    schedule.ElementID
	importsToMatch []part.ImportRegistrationID
}

// NewImportDefinition creates a group import. A zero insertPoint means the import does not
// splice a schedule.
func NewImportDefinition(
	group part.GroupRegistrationID,
	contractName string,
	insertPoint schedule.ElementID,
	imports ...part.ImportRegistrationID,
) (*ImportDefinition, error) {
	if group.IsZero() {
		return nil, ErrEmptyGroupName
	}
	if contractName == "" {
		return nil, contract.ErrEmptyContractName
	}
	if len(imports) == 0 {
		return nil, fmt.Errorf("group import %q of %s: %w: no part imports", contractName, group, ErrUnknownImport)
	}
	return &ImportDefinition{
		group:          group,
		contractName:   contractName,
		insertPoint:    insertPoint,
		importsToMatch: sortedUnique(imports, part.ImportRegistrationID.Compare),
	}, nil
}

func (i *ImportDefinition) ContainingGroup() part.GroupRegistrationID { return i.group }
func (i *ImportDefinition) ContractName() string                      { return i.contractName }
func (i *ImportDefinition) InsertPoint() schedule.ElementID           { return i.insertPoint }
func (i *ImportDefinition) HasInsertPoint() bool                      { return !i.insertPoint.IsZero() }

// ImportsToMatch returns the part imports the group import satisfies, in id order.
func (i *ImportDefinition) ImportsToMatch() []part.ImportRegistrationID { return i.importsToMatch }

// Equal compares group, contract name, insert point and part imports.
func (i *ImportDefinition) Equal(o *ImportDefinition) bool {
	if i == nil || o == nil {
		return i == o
	}
	return i.group == o.group &&
		i.contractName == o.contractName &&
		i.insertPoint == o.insertPoint &&
		slices.Equal(i.importsToMatch, o.importsToMatch)
}

// Key identifies the import inside the owning group.
func (i *ImportDefinition) Key() string {
	return i.group.String() + "/" + i.contractName
}

func (i *ImportDefinition) String() string {
	return i.Key()
}

// PartImportToPartExportMap records which part exports realize one part import.
type PartImportToPartExportMap struct {
	importID part.ImportRegistrationID
	exports  []part.ExportRegistrationID
}

// NewPartImportToPartExportMap creates a mapping. Exports are kept in id order.
func NewPartImportToPartExportMap(imp part.ImportRegistrationID, exports ...part.ExportRegistrationID) PartImportToPartExportMap {
	return PartImportToPartExportMap{importID: imp, exports: sortedUnique(exports, part.ExportRegistrationID.Compare)}
}

func (m PartImportToPartExportMap) Import() part.ImportRegistrationID    { return m.importID }
func (m PartImportToPartExportMap) Exports() []part.ExportRegistrationID { return m.exports }

// Equal compares the import and its exports.
func (m PartImportToPartExportMap) Equal(o PartImportToPartExportMap) bool {
	return m.importID == o.importID && slices.Equal(m.exports, o.exports)
}

type exportDefJSON struct {
	Group    part.GroupRegistrationID    `json:"group"`
	Contract string                      `json:"contract_name"`
	Provided []part.ExportRegistrationID `json:"provided_exports"`
}

// MarshalJSON implements json.Marshaler.
func (e *ExportDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(exportDefJSON{Group: e.group, Contract: e.contractName, Provided: e.providedExports})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *ExportDefinition) UnmarshalJSON(data []byte) error {
	var w exportDefJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := NewExportDefinition(w.Group, w.Contract, w.Provided...)
	if err != nil {
		return err
	}
	*e = *v
	return nil
}

type importDefJSON struct {
	Group          part.GroupRegistrationID    `json:"group"`
	Contract       string                      `json:"contract_name"`
	InsertPoint    *schedule.ElementID         `json:"insert_point,omitempty"`
	ImportsToMatch []part.ImportRegistrationID `json:"imports_to_match"`
}

// MarshalJSON implements json.Marshaler.
func (i *ImportDefinition) MarshalJSON() ([]byte, error) {
	w := importDefJSON{Group: i.group, Contract: i.contractName, ImportsToMatch: i.importsToMatch}
	if i.HasInsertPoint() {
		ip := i.insertPoint
		w.InsertPoint = &ip
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *ImportDefinition) UnmarshalJSON(data []byte) error {
	var w importDefJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var ip schedule.ElementID
	if w.InsertPoint != nil {
		ip = *w.InsertPoint
	}
	v, err := NewImportDefinition(w.Group, w.Contract, ip, w.ImportsToMatch...)
	if err != nil {
		return err
	}
	*i = *v
	return nil
}

type partMapJSON struct {
	Import  part.ImportRegistrationID   `json:"import"`
	Exports []part.ExportRegistrationID `json:"exports"`
}

// MarshalJSON implements json.Marshaler.
func (m PartImportToPartExportMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(partMapJSON{Import: m.importID, Exports: m.exports})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *PartImportToPartExportMap) UnmarshalJSON(data []byte) error {
	var w partMapJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = NewPartImportToPartExportMap(w.Import, w.Exports...)
	return nil
}

func sortedUnique[T comparable](in []T, cmp func(a, b T) int) []T {
	out := slices.Clone(in)
	slices.SortFunc(out, cmp)
	return slices.Compact(out)
}
