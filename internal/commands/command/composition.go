package command

import (
	"fmt"

	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/group"
)

// AddGroupCommand instantiates Definition. The result Data is the new GroupCompositionID.
type AddGroupCommand struct {
	BaseCommand
	Definition *group.Definition
}

// NewAddGroupCommand creates an AddGroupCommand.
func NewAddGroupCommand(source CommandSource, def *group.Definition) *AddGroupCommand {
	return &AddGroupCommand{BaseCommand: NewBaseCommand(CmdAddGroup, source), Definition: def}
}

// Validate requires a definition.
func (c *AddGroupCommand) Validate() error {
	if c.Definition == nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, composition.ErrNilGroup)
	}
	return nil
}

// RemoveGroupCommand removes Group after disconnecting it.
type RemoveGroupCommand struct {
	BaseCommand
	Group composition.GroupCompositionID
}

// NewRemoveGroupCommand creates a RemoveGroupCommand.
func NewRemoveGroupCommand(source CommandSource, id composition.GroupCompositionID) *RemoveGroupCommand {
	return &RemoveGroupCommand{BaseCommand: NewBaseCommand(CmdRemoveGroup, source), Group: id}
}

// Validate requires a valid group ID.
func (c *RemoveGroupCommand) Validate() error {
	return validID("group", c.Group)
}

// ConnectCommand connects Import on Importing to Exporting.
type ConnectCommand struct {
	BaseCommand
	Importing composition.GroupCompositionID
	Import    *group.ImportDefinition
	Exporting composition.GroupCompositionID
}

// NewConnectCommand creates a ConnectCommand.
func NewConnectCommand(source CommandSource, importing composition.GroupCompositionID, imp *group.ImportDefinition, exporting composition.GroupCompositionID) *ConnectCommand {
	return &ConnectCommand{
		BaseCommand: NewBaseCommand(CmdConnect, source),
		Importing:   importing,
		Import:      imp,
		Exporting:   exporting,
	}
}

// Validate requires both IDs and the import.
func (c *ConnectCommand) Validate() error {
	if err := validID("importing", c.Importing); err != nil {
		return err
	}
	if err := validID("exporting", c.Exporting); err != nil {
		return err
	}
	if c.Import == nil {
		return fmt.Errorf("%w: import is required", ErrInvalidCommand)
	}
	return nil
}

// DisconnectCommand removes every connection from Importing to Exporting.
// The result Data is the number of removed connections.
type DisconnectCommand struct {
	BaseCommand
	Importing composition.GroupCompositionID
	Exporting composition.GroupCompositionID
}

// NewDisconnectCommand creates a DisconnectCommand.
func NewDisconnectCommand(source CommandSource, importing, exporting composition.GroupCompositionID) *DisconnectCommand {
	return &DisconnectCommand{
		BaseCommand: NewBaseCommand(CmdDisconnect, source),
		Importing:   importing,
		Exporting:   exporting,
	}
}

// Validate requires both IDs.
func (c *DisconnectCommand) Validate() error {
	if err := validID("importing", c.Importing); err != nil {
		return err
	}
	return validID("exporting", c.Exporting)
}

// DisconnectAllCommand removes every connection of Group.
type DisconnectAllCommand struct {
	BaseCommand
	Group composition.GroupCompositionID
}

// NewDisconnectAllCommand creates a DisconnectAllCommand.
func NewDisconnectAllCommand(source CommandSource, id composition.GroupCompositionID) *DisconnectAllCommand {
	return &DisconnectAllCommand{BaseCommand: NewBaseCommand(CmdDisconnectAll, source), Group: id}
}

// Validate requires a valid group ID.
func (c *DisconnectAllCommand) Validate() error {
	return validID("group", c.Group)
}

func validID(field string, id composition.GroupCompositionID) error {
	if !id.IsValid() {
		return fmt.Errorf("%w: %s: %w", ErrInvalidCommand, field, composition.ErrInvalidGroupCompositionID)
	}
	return nil
}
