package contract

import (
	"fmt"

	"github.com/zjrosen/composer/internal/typesystem"
)

// SubtypeChecker answers inheritance questions over stored type definitions.
type SubtypeChecker interface {
	IsSubtypeOf(child, parent *typesystem.TypeIdentity) bool
}

// IsSatisfiedBy reports whether exp can satisfy imp: the contract names are equal and the
// provided type equals the required type.
func IsSatisfiedBy(imp ImportDefinition, exp ExportDefinition) bool {
	if imp == nil || exp == nil {
		return false
	}
	if imp.ContractName() != exp.ContractName() {
		return false
	}
	if !imp.CreationPolicy().Compatible(exp.CreationPolicy()) {
		return false
	}
	provided := exp.ProvidedTypeIdentity()
	return provided != nil && provided.Equal(imp.RequiredTypeIdentity())
}

// IsAssignable is IsSatisfiedBy that also accepts a provided type deriving from or
// implementing the required type. A nil checker means exact matching.
func IsAssignable(imp ImportDefinition, exp ExportDefinition, checker SubtypeChecker) bool {
	if IsSatisfiedBy(imp, exp) {
		return true
	}
	if checker == nil || imp == nil || exp == nil {
		return false
	}
	if imp.ContractName() != exp.ContractName() || !imp.CreationPolicy().Compatible(exp.CreationPolicy()) {
		return false
	}
	provided := exp.ProvidedTypeIdentity()
	return provided != nil && checker.IsSubtypeOf(provided, imp.RequiredTypeIdentity())
}

// Match returns ErrCannotMapExportToImport when exp cannot satisfy imp.
func Match(imp ImportDefinition, exp ExportDefinition, checker SubtypeChecker) error {
	if IsAssignable(imp, exp, checker) {
		return nil
	}
	return fmt.Errorf("%w: %s (requires %s) from %s (provides %s)",
		ErrCannotMapExportToImport,
		describeImport(imp), describeType(importType(imp)),
		describeExport(exp), describeType(exportType(exp)))
}

// CheckCardinality returns ErrCannotMapExportToImport when n matching exports violate the
// cardinality of imp.
func CheckCardinality(imp ImportDefinition, n int) error {
	if imp == nil {
		return fmt.Errorf("%w: nil import", ErrCannotMapExportToImport)
	}
	if imp.Cardinality().Allows(n) {
		return nil
	}
	return fmt.Errorf("%w: %s allows %s exports, got %d",
		ErrCannotMapExportToImport, imp.ContractName(), imp.Cardinality(), n)
}

func importType(imp ImportDefinition) *typesystem.TypeIdentity {
	if imp == nil {
		return nil
	}
	return imp.RequiredTypeIdentity()
}

func exportType(exp ExportDefinition) *typesystem.TypeIdentity {
	if exp == nil {
		return nil
	}
	return exp.ProvidedTypeIdentity()
}

func describeImport(imp ImportDefinition) string {
	if imp == nil {
		return "<nil import>"
	}
	return fmt.Sprintf("import %q", imp.ContractName())
}

func describeExport(exp ExportDefinition) string {
	if exp == nil {
		return "<nil export>"
	}
	return fmt.Sprintf("export %q", exp.ContractName())
}

func describeType(id *typesystem.TypeIdentity) string {
	if id == nil {
		return "void"
	}
	return id.String()
}
