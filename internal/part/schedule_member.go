package part

import (
	"encoding/json"
	"fmt"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/typesystem"
)

// BooleanTypeName is the full name a condition method must return.
const BooleanTypeName = "System.Boolean"

// ScheduleActionDefinition is a parameterless void method a schedule may execute.
type ScheduleActionDefinition struct {
	contractName string
	method       *typesystem.MethodDefinition
}

// NewScheduleActionDefinition validates and creates an action definition.
func NewScheduleActionDefinition(contractName string, m *typesystem.MethodDefinition) (*ScheduleActionDefinition, error) {
	if contractName == "" {
		return nil, contract.ErrEmptyContractName
	}
	if m == nil {
		return nil, fmt.Errorf("schedule action %q: %w", contractName, typesystem.ErrNilMember)
	}
	if !m.IsVoid() || len(m.Parameters()) > 0 {
		return nil, fmt.Errorf("%w: action %q must be a parameterless void method, got %s",
			ErrInvalidScheduleMember, contractName, m)
	}
	return &ScheduleActionDefinition{contractName: contractName, method: m}, nil
}

// CreateScheduleActionDefinition builds an action definition from a live method.
func CreateScheduleActionDefinition(contractName string, m typesystem.Method, gen typesystem.IdentityGenerator) (*ScheduleActionDefinition, error) {
	md, err := typesystem.CreateMethodDefinition(m, gen)
	if err != nil {
		return nil, fmt.Errorf("schedule action %q: %w", contractName, err)
	}
	return NewScheduleActionDefinition(contractName, md)
}

func (d *ScheduleActionDefinition) ContractName() string                 { return d.contractName }
func (d *ScheduleActionDefinition) Method() *typesystem.MethodDefinition { return d.method }

// Equal compares contract name and method.
func (d *ScheduleActionDefinition) Equal(o *ScheduleActionDefinition) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.contractName == o.contractName && d.method.Equal(o.method)
}

// ScheduleConditionDefinition is a parameterless method returning a boolean that a schedule
// may evaluate on an edge.
type ScheduleConditionDefinition struct {
	contractName string
	method       *typesystem.MethodDefinition
}

// NewScheduleConditionDefinition validates and creates a condition definition.
func NewScheduleConditionDefinition(contractName string, m *typesystem.MethodDefinition) (*ScheduleConditionDefinition, error) {
	if contractName == "" {
		return nil, contract.ErrEmptyContractName
	}
	if m == nil {
		return nil, fmt.Errorf("schedule condition %q: %w", contractName, typesystem.ErrNilMember)
	}
	if m.IsVoid() || m.ReturnType().String() != BooleanTypeName || len(m.Parameters()) > 0 {
		return nil, fmt.Errorf("%w: condition %q must be a parameterless method returning %s, got %s",
			ErrInvalidScheduleMember, contractName, BooleanTypeName, m)
	}
	return &ScheduleConditionDefinition{contractName: contractName, method: m}, nil
}

// CreateScheduleConditionDefinition builds a condition definition from a live method.
func CreateScheduleConditionDefinition(contractName string, m typesystem.Method, gen typesystem.IdentityGenerator) (*ScheduleConditionDefinition, error) {
	md, err := typesystem.CreateMethodDefinition(m, gen)
	if err != nil {
		return nil, fmt.Errorf("schedule condition %q: %w", contractName, err)
	}
	return NewScheduleConditionDefinition(contractName, md)
}

func (d *ScheduleConditionDefinition) ContractName() string                 { return d.contractName }
func (d *ScheduleConditionDefinition) Method() *typesystem.MethodDefinition { return d.method }

// Equal compares contract name and method.
func (d *ScheduleConditionDefinition) Equal(o *ScheduleConditionDefinition) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.contractName == o.contractName && d.method.Equal(o.method)
}

type scheduleMemberJSON struct {
	ContractName string                       `json:"contract_name"`
	Method       *typesystem.MethodDefinition `json:"method"`
}

// MarshalJSON implements json.Marshaler.
func (d *ScheduleActionDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(scheduleMemberJSON{ContractName: d.contractName, Method: d.method})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *ScheduleActionDefinition) UnmarshalJSON(data []byte) error {
	var w scheduleMemberJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := NewScheduleActionDefinition(w.ContractName, w.Method)
	if err != nil {
		return err
	}
	*d = *v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d *ScheduleConditionDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(scheduleMemberJSON{ContractName: d.contractName, Method: d.method})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *ScheduleConditionDefinition) UnmarshalJSON(data []byte) error {
	var w scheduleMemberJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := NewScheduleConditionDefinition(w.ContractName, w.Method)
	if err != nil {
		return err
	}
	*d = *v
	return nil
}
