// Package handler provides the command handlers that apply composition
// commands to a composition.Layer. Handlers run on the processor goroutine.
package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/composer/internal/commands/command"
	"github.com/zjrosen/composer/internal/composition"
)

// ErrUnexpectedCommand is returned when a handler receives a command of the wrong concrete type.
var ErrUnexpectedCommand = errors.New("unexpected command")

// Registrar is the part of the processor the handlers register with.
type Registrar interface {
	RegisterHandler(cmdType command.CommandType, handler command.Handler)
}

// Register installs a handler for every composition command type.
func Register(r Registrar, layer *composition.Layer) {
	r.RegisterHandler(command.CmdAddGroup, NewAddGroupHandler(layer))
	r.RegisterHandler(command.CmdRemoveGroup, NewRemoveGroupHandler(layer))
	r.RegisterHandler(command.CmdConnect, NewConnectHandler(layer))
	r.RegisterHandler(command.CmdDisconnect, NewDisconnectHandler(layer))
	r.RegisterHandler(command.CmdDisconnectAll, NewDisconnectAllHandler(layer))
}

func unexpected(want command.CommandType, cmd command.Command) error {
	return fmt.Errorf("%w: %T for %s", ErrUnexpectedCommand, cmd, want)
}

func success(data any) *command.CommandResult {
	return &command.CommandResult{Success: true, Data: data}
}

// ===========================================================================
// AddGroupHandler
// ===========================================================================

// AddGroupHandler handles CmdAddGroup commands.
type AddGroupHandler struct {
	layer *composition.Layer
}

// NewAddGroupHandler creates a new AddGroupHandler.
func NewAddGroupHandler(layer *composition.Layer) *AddGroupHandler {
	return &AddGroupHandler{layer: layer}
}

// Handle adds the definition. Result Data is the new composition.GroupCompositionID.
func (h *AddGroupHandler) Handle(_ context.Context, cmd command.Command) (*command.CommandResult, error) {
	addCmd, ok := cmd.(*command.AddGroupCommand)
	if !ok {
		return nil, unexpected(command.CmdAddGroup, cmd)
	}
	id, err := h.layer.Add(addCmd.Definition)
	if err != nil {
		return nil, err
	}
	return success(id), nil
}

// ===========================================================================
// RemoveGroupHandler
// ===========================================================================

// RemoveGroupHandler handles CmdRemoveGroup commands.
type RemoveGroupHandler struct {
	layer *composition.Layer
}

// NewRemoveGroupHandler creates a new RemoveGroupHandler.
func NewRemoveGroupHandler(layer *composition.Layer) *RemoveGroupHandler {
	return &RemoveGroupHandler{layer: layer}
}

// Handle removes the group and its connections.
func (h *RemoveGroupHandler) Handle(_ context.Context, cmd command.Command) (*command.CommandResult, error) {
	removeCmd, ok := cmd.(*command.RemoveGroupCommand)
	if !ok {
		return nil, unexpected(command.CmdRemoveGroup, cmd)
	}
	if err := h.layer.Remove(removeCmd.Group); err != nil {
		return nil, err
	}
	return success(nil), nil
}

// ===========================================================================
// ConnectHandler
// ===========================================================================

// ConnectHandler handles CmdConnect commands.
type ConnectHandler struct {
	layer *composition.Layer
}

// NewConnectHandler creates a new ConnectHandler.
func NewConnectHandler(layer *composition.Layer) *ConnectHandler {
	return &ConnectHandler{layer: layer}
}

// Handle connects the import. Result Data is the resulting composition.Connection.
func (h *ConnectHandler) Handle(_ context.Context, cmd command.Command) (*command.CommandResult, error) {
	connectCmd, ok := cmd.(*command.ConnectCommand)
	if !ok {
		return nil, unexpected(command.CmdConnect, cmd)
	}
	if err := h.layer.Connect(connectCmd.Importing, connectCmd.Import, connectCmd.Exporting); err != nil {
		return nil, err
	}
	conn, _ := h.layer.Connection(connectCmd.Importing, connectCmd.Import)
	return success(conn), nil
}

// ===========================================================================
// DisconnectHandler
// ===========================================================================

// DisconnectResult reports how many connections a disconnect removed.
type DisconnectResult struct {
	Removed int
}

// DisconnectHandler handles CmdDisconnect commands.
type DisconnectHandler struct {
	layer *composition.Layer
}

// NewDisconnectHandler creates a new DisconnectHandler.
func NewDisconnectHandler(layer *composition.Layer) *DisconnectHandler {
	return &DisconnectHandler{layer: layer}
}

// Handle removes every connection from Importing to Exporting.
func (h *DisconnectHandler) Handle(_ context.Context, cmd command.Command) (*command.CommandResult, error) {
	disconnectCmd, ok := cmd.(*command.DisconnectCommand)
	if !ok {
		return nil, unexpected(command.CmdDisconnect, cmd)
	}
	n, err := h.layer.Disconnect(disconnectCmd.Importing, disconnectCmd.Exporting)
	if err != nil {
		return nil, err
	}
	return success(&DisconnectResult{Removed: n}), nil
}

// ===========================================================================
// DisconnectAllHandler
// ===========================================================================

// DisconnectAllHandler handles CmdDisconnectAll commands.
type DisconnectAllHandler struct {
	layer *composition.Layer
}

// NewDisconnectAllHandler creates a new DisconnectAllHandler.
func NewDisconnectAllHandler(layer *composition.Layer) *DisconnectAllHandler {
	return &DisconnectAllHandler{layer: layer}
}

// Handle removes every connection in which the group imports or exports.
func (h *DisconnectAllHandler) Handle(_ context.Context, cmd command.Command) (*command.CommandResult, error) {
	disconnectCmd, ok := cmd.(*command.DisconnectAllCommand)
	if !ok {
		return nil, unexpected(command.CmdDisconnectAll, cmd)
	}
	n, err := h.layer.DisconnectAll(disconnectCmd.Group)
	if err != nil {
		return nil, err
	}
	return success(&DisconnectResult{Removed: n}), nil
}
