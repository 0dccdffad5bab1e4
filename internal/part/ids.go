package part

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// memberKey is the shared shape of the member registration ids: the owning part type, the
// index of the part inside its group, and a name.
type memberKey struct {
	owner string
	index int
	name  string
}

func newMemberKey(kind, owner string, index int, name string) (memberKey, error) {
	switch {
	case owner == "":
		return memberKey{}, fmt.Errorf("%w: %s owner is empty", ErrInvalidRegistrationID, kind)
	case index < 0:
		return memberKey{}, fmt.Errorf("%w: %s index %d is negative", ErrInvalidRegistrationID, kind, index)
	case name == "":
		return memberKey{}, fmt.Errorf("%w: %s name is empty", ErrInvalidRegistrationID, kind)
	case strings.Contains(owner, "|") || strings.Contains(name, "|"):
		return memberKey{}, fmt.Errorf("%w: %s contains '|'", ErrInvalidRegistrationID, kind)
	}
	return memberKey{owner: owner, index: index, name: name}, nil
}

func (k memberKey) compare(o memberKey) int {
	return cmp.Or(
		cmp.Compare(k.owner, o.owner),
		cmp.Compare(k.index, o.index),
		cmp.Compare(k.name, o.name),
	)
}

func (k memberKey) String() string {
	return k.owner + "|" + strconv.Itoa(k.index) + "|" + k.name
}

func parseMemberKey(kind, text string) (memberKey, error) {
	fields := strings.Split(text, "|")
	if len(fields) != 3 {
		return memberKey{}, fmt.Errorf("%w: %s %q", ErrInvalidRegistrationID, kind, text)
	}
	index, err := strconv.Atoi(fields[1])
	if err != nil {
		return memberKey{}, fmt.Errorf("%w: %s index %q", ErrInvalidRegistrationID, kind, fields[1])
	}
	return newMemberKey(kind, fields[0], index, fields[2])
}

// PartRegistrationID identifies a part inside a group: its type and its index among the
// parts of the same type.
type PartRegistrationID struct {
	owner string
	index int
}

// NewPartRegistrationID validates and creates a part id.
func NewPartRegistrationID(owner string, index int) (PartRegistrationID, error) {
	if owner == "" || index < 0 || strings.Contains(owner, "|") {
		return PartRegistrationID{}, fmt.Errorf("%w: part %q/%d", ErrInvalidRegistrationID, owner, index)
	}
	return PartRegistrationID{owner: owner, index: index}, nil
}

func (id PartRegistrationID) Owner() string { return id.owner }
func (id PartRegistrationID) Index() int    { return id.index }
func (id PartRegistrationID) IsZero() bool  { return id == PartRegistrationID{} }

// Compare orders by owner, then index.
func (id PartRegistrationID) Compare(o PartRegistrationID) int {
	return cmp.Or(cmp.Compare(id.owner, o.owner), cmp.Compare(id.index, o.index))
}

func (id PartRegistrationID) String() string {
	return id.owner + "|" + strconv.Itoa(id.index)
}

// MarshalText implements encoding.TextMarshaler.
func (id PartRegistrationID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *PartRegistrationID) UnmarshalText(text []byte) error {
	owner, idx, ok := strings.Cut(string(text), "|")
	if !ok {
		return fmt.Errorf("%w: part %q", ErrInvalidRegistrationID, text)
	}
	index, err := strconv.Atoi(idx)
	if err != nil {
		return fmt.Errorf("%w: part index %q", ErrInvalidRegistrationID, idx)
	}
	v, err := NewPartRegistrationID(owner, index)
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// ImportRegistrationID identifies one import of one part.
type ImportRegistrationID struct{ k memberKey }

// NewImportRegistrationID validates and creates an import id.
func NewImportRegistrationID(owner string, index int, contractName string) (ImportRegistrationID, error) {
	k, err := newMemberKey("import", owner, index, contractName)
	return ImportRegistrationID{k}, err
}

func (id ImportRegistrationID) Owner() string        { return id.k.owner }
func (id ImportRegistrationID) Index() int           { return id.k.index }
func (id ImportRegistrationID) ContractName() string { return id.k.name }
func (id ImportRegistrationID) IsZero() bool         { return id == ImportRegistrationID{} }
func (id ImportRegistrationID) String() string       { return id.k.String() }

// Compare orders by owner, index, then contract name.
func (id ImportRegistrationID) Compare(o ImportRegistrationID) int { return id.k.compare(o.k) }

// MarshalText implements encoding.TextMarshaler.
func (id ImportRegistrationID) MarshalText() ([]byte, error) { return []byte(id.k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ImportRegistrationID) UnmarshalText(text []byte) error {
	k, err := parseMemberKey("import", string(text))
	if err != nil {
		return err
	}
	id.k = k
	return nil
}

// ExportRegistrationID identifies one export of one part.
type ExportRegistrationID struct{ k memberKey }

// NewExportRegistrationID validates and creates an export id.
func NewExportRegistrationID(owner string, index int, contractName string) (ExportRegistrationID, error) {
	k, err := newMemberKey("export", owner, index, contractName)
	return ExportRegistrationID{k}, err
}

func (id ExportRegistrationID) Owner() string        { return id.k.owner }
func (id ExportRegistrationID) Index() int           { return id.k.index }
func (id ExportRegistrationID) ContractName() string { return id.k.name }
func (id ExportRegistrationID) IsZero() bool         { return id == ExportRegistrationID{} }
func (id ExportRegistrationID) String() string       { return id.k.String() }

// Compare orders by owner, index, then contract name.
func (id ExportRegistrationID) Compare(o ExportRegistrationID) int { return id.k.compare(o.k) }

// MarshalText implements encoding.TextMarshaler.
func (id ExportRegistrationID) MarshalText() ([]byte, error) { return []byte(id.k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ExportRegistrationID) UnmarshalText(text []byte) error {
	k, err := parseMemberKey("export", string(text))
	if err != nil {
		return err
	}
	id.k = k
	return nil
}

// ScheduleActionRegistrationID identifies one schedule action of one part.
type ScheduleActionRegistrationID struct{ k memberKey }

// NewScheduleActionRegistrationID validates and creates an action id.
func NewScheduleActionRegistrationID(owner string, index int, contractName string) (ScheduleActionRegistrationID, error) {
	k, err := newMemberKey("schedule action", owner, index, contractName)
	return ScheduleActionRegistrationID{k}, err
}

func (id ScheduleActionRegistrationID) Owner() string        { return id.k.owner }
func (id ScheduleActionRegistrationID) Index() int           { return id.k.index }
func (id ScheduleActionRegistrationID) ContractName() string { return id.k.name }
func (id ScheduleActionRegistrationID) IsZero() bool         { return id == ScheduleActionRegistrationID{} }
func (id ScheduleActionRegistrationID) String() string       { return id.k.String() }

func (id ScheduleActionRegistrationID) Compare(o ScheduleActionRegistrationID) int {
	return id.k.compare(o.k)
}

// MarshalText implements encoding.TextMarshaler.
func (id ScheduleActionRegistrationID) MarshalText() ([]byte, error) {
	return []byte(id.k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ScheduleActionRegistrationID) UnmarshalText(text []byte) error {
	k, err := parseMemberKey("schedule action", string(text))
	if err != nil {
		return err
	}
	id.k = k
	return nil
}

// ScheduleConditionRegistrationID identifies one schedule condition of one part.
type ScheduleConditionRegistrationID struct{ k memberKey }

// NewScheduleConditionRegistrationID validates and creates a condition id.
func NewScheduleConditionRegistrationID(owner string, index int, contractName string) (ScheduleConditionRegistrationID, error) {
	k, err := newMemberKey("schedule condition", owner, index, contractName)
	return ScheduleConditionRegistrationID{k}, err
}

func (id ScheduleConditionRegistrationID) Owner() string        { return id.k.owner }
func (id ScheduleConditionRegistrationID) Index() int           { return id.k.index }
func (id ScheduleConditionRegistrationID) ContractName() string { return id.k.name }
func (id ScheduleConditionRegistrationID) IsZero() bool         { return id == ScheduleConditionRegistrationID{} }
func (id ScheduleConditionRegistrationID) String() string       { return id.k.String() }

func (id ScheduleConditionRegistrationID) Compare(o ScheduleConditionRegistrationID) int {
	return id.k.compare(o.k)
}

// MarshalText implements encoding.TextMarshaler.
func (id ScheduleConditionRegistrationID) MarshalText() ([]byte, error) {
	return []byte(id.k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ScheduleConditionRegistrationID) UnmarshalText(text []byte) error {
	k, err := parseMemberKey("schedule condition", string(text))
	if err != nil {
		return err
	}
	id.k = k
	return nil
}

// GroupRegistrationID names a group definition.
type GroupRegistrationID struct {
	name string
}

// NewGroupRegistrationID validates and creates a group id.
func NewGroupRegistrationID(name string) (GroupRegistrationID, error) {
	if strings.TrimSpace(name) == "" {
		return GroupRegistrationID{}, fmt.Errorf("%w: group name is empty", ErrInvalidRegistrationID)
	}
	return GroupRegistrationID{name: name}, nil
}

func (id GroupRegistrationID) Name() string   { return id.name }
func (id GroupRegistrationID) IsZero() bool   { return id.name == "" }
func (id GroupRegistrationID) String() string { return id.name }

// Compare orders by name.
func (id GroupRegistrationID) Compare(o GroupRegistrationID) int { return cmp.Compare(id.name, o.name) }

// MarshalText implements encoding.TextMarshaler.
func (id GroupRegistrationID) MarshalText() ([]byte, error) { return []byte(id.name), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *GroupRegistrationID) UnmarshalText(text []byte) error {
	v, err := NewGroupRegistrationID(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
