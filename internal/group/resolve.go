package group

import (
	"fmt"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/part"
)

// Resolve computes the part-level mapping that connects imp, owned by importing, to the
// export of exporting. Each part import behind imp is matched against the part exports
// behind the group export; the number of matches must satisfy the part import cardinality.
// Part imports that stay unmatched under a zero-permitting cardinality get no entry, unless
// an export with their contract name exists but provides an incompatible type.
func Resolve(
	importing *Definition,
	imp *ImportDefinition,
	exporting *Definition,
	checker contract.SubtypeChecker,
) ([]PartImportToPartExportMap, error) {
	if importing == nil || exporting == nil || imp == nil {
		return nil, fmt.Errorf("%w: missing group or import", ErrCannotMapExportToImport)
	}
	if !importing.HasImport(imp) {
		return nil, fmt.Errorf("%w: %s not declared by %s", ErrUnknownImport, imp, importing.id)
	}
	exp := exporting.export
	if exp == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoGroupExport, exporting.id)
	}
	if exp.contractName != imp.contractName {
		return nil, fmt.Errorf("%w: group import %s does not match group export %s",
			ErrCannotMapExportToImport, imp, exp)
	}

	var maps []PartImportToPartExportMap
	for _, importID := range imp.importsToMatch {
		partImport, err := importing.PartImportByID(importID)
		if err != nil {
			return nil, err
		}

		var (
			matchIDs []part.ExportRegistrationID
			mismatch error
		)
		for _, exportID := range exp.providedExports {
			partExport, err := exporting.PartExportByID(exportID)
			if err != nil {
				return nil, err
			}
			if partExport.ContractName() != partImport.ContractName() {
				continue
			}
			if err := contract.Match(partImport, partExport, checker); err != nil {
				mismatch = err
				continue
			}
			matchIDs = append(matchIDs, exportID)
		}

		// A same-contract export of the wrong type is never an empty match.
		if mismatch != nil && len(matchIDs) == 0 {
			return nil, fmt.Errorf("%s: %w", importID, mismatch)
		}
		if err := contract.CheckCardinality(partImport, len(matchIDs)); err != nil {
			return nil, fmt.Errorf("%s: %w", importID, err)
		}
		if len(matchIDs) > 0 {
			maps = append(maps, NewPartImportToPartExportMap(importID, matchIDs...))
		}
	}
	return maps, nil
}
