package handler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/composer/internal/commands/command"
	"github.com/zjrosen/composer/internal/commands/handler"
	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/testutil"
)

type registry map[command.CommandType]command.Handler

func (r registry) RegisterHandler(cmdType command.CommandType, h command.Handler) {
	r[cmdType] = h
}

func handle(t *testing.T, r registry, cmd command.Command) (*command.CommandResult, error) {
	t.Helper()
	h, ok := r[cmd.Type()]
	require.True(t, ok, "no handler for %s", cmd.Type())
	return h.Handle(context.Background(), cmd)
}

func TestRegister_CoversEveryCommand(t *testing.T) {
	r := registry{}
	handler.Register(r, composition.NewLayer())
	for _, ct := range []command.CommandType{
		command.CmdAddGroup,
		command.CmdRemoveGroup,
		command.CmdConnect,
		command.CmdDisconnect,
		command.CmdDisconnectAll,
	} {
		assert.Contains(t, r, ct)
	}
}

func TestHandlers_Lifecycle(t *testing.T) {
	cat := testutil.NewCatalog(t)
	layer := composition.NewLayer()
	r := registry{}
	handler.Register(r, layer)

	exporter := cat.Exporter(t, "calculator")
	importer := cat.Importer(t, "consumer", cat.Consumer)

	result, err := handle(t, r, command.NewAddGroupCommand(command.SourceInternal, exporter))
	require.NoError(t, err)
	require.True(t, result.Success)
	expID := result.Data.(composition.GroupCompositionID)

	result, err = handle(t, r, command.NewAddGroupCommand(command.SourceInternal, importer))
	require.NoError(t, err)
	impID := result.Data.(composition.GroupCompositionID)
	require.Equal(t, 2, layer.Len())

	imp := testutil.Import(t, importer)
	result, err = handle(t, r, command.NewConnectCommand(command.SourceInternal, impID, imp, expID))
	require.NoError(t, err)
	conn := result.Data.(composition.Connection)
	require.Equal(t, expID, conn.Exporting)
	require.Len(t, conn.PartMaps, 1)
	require.True(t, layer.IsConnectedTo(impID, imp, expID))

	result, err = handle(t, r, command.NewDisconnectCommand(command.SourceInternal, impID, expID))
	require.NoError(t, err)
	require.Equal(t, 1, result.Data.(*handler.DisconnectResult).Removed)

	_, err = handle(t, r, command.NewConnectCommand(command.SourceInternal, impID, imp, expID))
	require.NoError(t, err)
	result, err = handle(t, r, command.NewDisconnectAllCommand(command.SourceInternal, expID))
	require.NoError(t, err)
	require.Equal(t, 1, result.Data.(*handler.DisconnectResult).Removed)

	result, err = handle(t, r, command.NewRemoveGroupCommand(command.SourceInternal, impID))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, layer.Contains(impID))
}

func TestHandlers_LayerErrorsPassThrough(t *testing.T) {
	cat := testutil.NewCatalog(t)
	layer := composition.NewLayer()
	r := registry{}
	handler.Register(r, layer)

	id, err := layer.Add(cat.Exporter(t, "calculator"))
	require.NoError(t, err)

	_, err = handle(t, r, command.NewRemoveGroupCommand(command.SourceInternal, composition.NewGroupCompositionID()))
	require.ErrorIs(t, err, composition.ErrUnknownGroup)

	importer := cat.Importer(t, "consumer", cat.Consumer)
	_, err = handle(t, r, command.NewConnectCommand(command.SourceInternal, id, testutil.Import(t, importer), id))
	require.ErrorIs(t, err, composition.ErrSelfConnection)
}

func TestHandlers_UnexpectedCommand(t *testing.T) {
	h := handler.NewAddGroupHandler(composition.NewLayer())
	_, err := h.Handle(context.Background(), command.NewRemoveGroupCommand(command.SourceInternal, composition.NewGroupCompositionID()))
	require.ErrorIs(t, err, handler.ErrUnexpectedCommand)
}
