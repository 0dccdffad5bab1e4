package composition_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/pubsub"
)

func TestGroupCompositionID(t *testing.T) {
	_, err := composition.GroupCompositionIDFromUUID(uuid.Nil)
	require.ErrorIs(t, err, composition.ErrInvalidGroupCompositionID)

	_, err = composition.ParseGroupCompositionID(uuid.Nil.String())
	require.ErrorIs(t, err, composition.ErrInvalidGroupCompositionID)

	_, err = composition.ParseGroupCompositionID("not-a-uuid")
	require.ErrorIs(t, err, composition.ErrInvalidGroupCompositionID)

	var zero composition.GroupCompositionID
	require.False(t, zero.IsValid())
	_, err = json.Marshal(zero)
	require.ErrorIs(t, err, composition.ErrInvalidGroupCompositionID)

	id := composition.NewGroupCompositionID()
	require.True(t, id.IsValid())
	data, err := json.Marshal(id)
	require.NoError(t, err)
	var back composition.GroupCompositionID
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, id, back)
	require.Zero(t, id.Compare(back))
}

func TestLayer_AddRejectsNil(t *testing.T) {
	l := composition.NewLayer()
	_, err := l.Add(nil)
	require.ErrorIs(t, err, composition.ErrNilGroup)
	require.Zero(t, l.Len())
}

func TestLayer_AddRejectsInvalidID(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer(composition.WithIDSource(func() composition.GroupCompositionID {
		return composition.GroupCompositionID{}
	}))
	_, err := l.Add(c.exporter(t, "a", c.calculator, "calc", "calc"))
	require.ErrorIs(t, err, composition.ErrInvalidGroupCompositionID)
}

func TestLayer_ConnectAndRemoveExporter(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()

	a, err := l.Add(c.exporter(t, "a", c.calculator, "calc", "calc"))
	require.NoError(t, err)
	bDef := c.importer(t, "b", c.consumer, "calc", "calc")
	b, err := l.Add(bDef)
	require.NoError(t, err)
	imp := onlyImport(t, bDef)

	require.True(t, l.Contains(a))
	require.Equal(t, []composition.GroupCompositionID{a, b}, l.Groups())
	require.False(t, l.IsConnected(b, imp))

	require.NoError(t, l.Connect(b, imp, a))
	require.True(t, l.IsConnected(b, imp))
	require.True(t, l.IsConnectedTo(b, imp, a))
	got, ok := l.ConnectedTo(b, imp)
	require.True(t, ok)
	require.Equal(t, a, got)

	conn, ok := l.Connection(b, imp)
	require.True(t, ok)
	require.Len(t, conn.PartMaps, 1)
	require.Len(t, conn.PartMaps[0].Exports(), 1)

	require.NoError(t, l.Remove(a))
	require.False(t, l.Contains(a))
	require.False(t, l.IsConnected(b, imp))
	require.Empty(t, l.Connections())

	_, err = l.Group(a)
	require.ErrorIs(t, err, composition.ErrUnknownGroup)
	require.ErrorIs(t, l.Remove(a), composition.ErrUnknownGroup)
}

func TestLayer_ConnectIncompatibleTypes(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()

	a, err := l.Add(c.exporter(t, "text", c.textCalc, "calc", "calc"))
	require.NoError(t, err)
	bDef := c.importer(t, "b", c.consumer, "calc", "calc")
	b, err := l.Add(bDef)
	require.NoError(t, err)

	before := l.CurrentState()
	err = l.Connect(b, onlyImport(t, bDef), a)
	require.ErrorIs(t, err, composition.ErrCannotMapExportToImport)
	require.Equal(t, before, l.CurrentState())
	require.False(t, l.IsConnected(b, onlyImport(t, bDef)))
}

func TestLayer_ConnectValidation(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()

	exporterDef := c.exporter(t, "a", c.calculator, "calc", "calc")
	a, err := l.Add(exporterDef)
	require.NoError(t, err)
	bDef := c.importer(t, "b", c.consumer, "calc", "calc")
	b, err := l.Add(bDef)
	require.NoError(t, err)
	imp := onlyImport(t, bDef)
	other := c.importer(t, "other", c.consumer, "calc", "calc")
	plain, err := l.Add(c.importer(t, "plain", c.consumer, "calc", "other-contract"))
	require.NoError(t, err)

	t.Run("unknown importing group", func(t *testing.T) {
		err := l.Connect(composition.NewGroupCompositionID(), imp, a)
		require.ErrorIs(t, err, composition.ErrUnknownGroup)
	})
	t.Run("unknown exporting group", func(t *testing.T) {
		err := l.Connect(b, imp, composition.NewGroupCompositionID())
		require.ErrorIs(t, err, composition.ErrUnknownGroup)
	})
	t.Run("import of another group", func(t *testing.T) {
		err := l.Connect(b, onlyImport(t, other), a)
		require.ErrorIs(t, err, composition.ErrImportNotOwned)
	})
	t.Run("nil import", func(t *testing.T) {
		err := l.Connect(b, nil, a)
		require.ErrorIs(t, err, composition.ErrUnknownImport)
	})
	t.Run("self connection", func(t *testing.T) {
		err := l.Connect(b, imp, b)
		require.ErrorIs(t, err, composition.ErrSelfConnection)
	})
	t.Run("exporter without export", func(t *testing.T) {
		err := l.Connect(a, imp, b)
		require.ErrorIs(t, err, composition.ErrImportNotOwned)
		err = l.Connect(b, imp, plain)
		require.ErrorIs(t, err, composition.ErrNoGroupExport)
	})
	t.Run("contract mismatch", func(t *testing.T) {
		plainDef, err := l.Group(plain)
		require.NoError(t, err)
		err = l.Connect(plain, onlyImport(t, plainDef), a)
		require.ErrorIs(t, err, composition.ErrCannotMapExportToImport)
	})
	t.Run("reconnect rejected", func(t *testing.T) {
		second, err := l.Add(exporterDef)
		require.NoError(t, err)
		require.NoError(t, l.Connect(b, imp, a))
		err = l.Connect(b, imp, second)
		require.ErrorIs(t, err, composition.ErrImportAlreadyConnected)
		require.True(t, l.IsConnectedTo(b, imp, a))
		require.False(t, l.IsConnectedTo(b, imp, second))
	})
}

func TestLayer_Disconnect(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()

	aDef := c.exporter(t, "a", c.calculator, "calc", "calc")
	a, err := l.Add(aDef)
	require.NoError(t, err)
	bDef := c.importer(t, "b", c.consumer, "calc", "calc")
	b1, err := l.Add(bDef)
	require.NoError(t, err)
	b2, err := l.Add(bDef)
	require.NoError(t, err)
	imp := onlyImport(t, bDef)

	require.NoError(t, l.Connect(b1, imp, a))
	require.NoError(t, l.Connect(b2, imp, a))
	require.Len(t, l.Connections(), 2)

	n, err := l.Disconnect(b1, a)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.False(t, l.IsConnected(b1, imp))
	require.True(t, l.IsConnected(b2, imp))

	n, err = l.Disconnect(b1, a)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = l.DisconnectAll(a)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Empty(t, l.Connections())

	_, err = l.Disconnect(b1, composition.NewGroupCompositionID())
	require.ErrorIs(t, err, composition.ErrUnknownGroup)
	_, err = l.DisconnectAll(composition.NewGroupCompositionID())
	require.ErrorIs(t, err, composition.ErrUnknownGroup)
}

func TestLayer_NonSatisfiedImports(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()

	a, err := l.Add(c.exporter(t, "a", c.calculator, "calc", "calc"))
	require.NoError(t, err)
	reqDef := c.importer(t, "required", c.consumer, "calc", "calc")
	req, err := l.Add(reqDef)
	require.NoError(t, err)
	optDef := c.importer(t, "optional", c.optional, "calc", "calc")
	opt, err := l.Add(optDef)
	require.NoError(t, err)

	unsatisfied := l.NonSatisfiedImports(false)
	require.Len(t, unsatisfied, 1)
	require.Equal(t, req, unsatisfied[0].Group)
	require.False(t, unsatisfied[0].Optional)

	all := l.NonSatisfiedImports(true)
	require.Len(t, all, 2)
	require.Equal(t, opt, all[1].Group)
	require.True(t, all[1].Optional)

	require.NoError(t, l.Connect(req, onlyImport(t, reqDef), a))
	require.Empty(t, l.NonSatisfiedImports(false))
	require.Len(t, l.NonSatisfiedImports(true), 1)
}

func TestLayer_OptionalImportWithoutMatchingPartExport(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()

	// The group export contract matches but no part export carries "calc".
	a, err := l.Add(c.exporter(t, "shapes", c.circles, "shape", "calc"))
	require.NoError(t, err)
	optDef := c.importer(t, "optional", c.optional, "calc", "calc")
	opt, err := l.Add(optDef)
	require.NoError(t, err)

	require.NoError(t, l.Connect(opt, onlyImport(t, optDef), a))
	conn, ok := l.Connection(opt, onlyImport(t, optDef))
	require.True(t, ok)
	require.Empty(t, conn.PartMaps)
}

func TestLayer_OptionalImportRejectsIncompatibleType(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()

	a, err := l.Add(c.exporter(t, "text", c.textCalc, "calc", "calc"))
	require.NoError(t, err)
	optDef := c.importer(t, "optional", c.optional, "calc", "calc")
	opt, err := l.Add(optDef)
	require.NoError(t, err)

	before := l.CurrentState()
	err = l.Connect(opt, onlyImport(t, optDef), a)
	require.ErrorIs(t, err, composition.ErrCannotMapExportToImport)
	require.False(t, l.IsConnected(opt, onlyImport(t, optDef)))
	require.Equal(t, before, l.CurrentState())
	require.Len(t, l.NonSatisfiedImports(true), 1)
}

func TestLayer_SubtypeChecker(t *testing.T) {
	c := newCatalog(t)
	require.True(t, c.repo.IsSubtypeOf(c.circle, c.shape))

	exp := c.exporter(t, "circles", c.circles, "shape", "shape")
	impDef := c.importer(t, "user", c.shapeUser, "shape", "shape")
	imp := onlyImport(t, impDef)

	strict := composition.NewLayer()
	a, err := strict.Add(exp)
	require.NoError(t, err)
	b, err := strict.Add(impDef)
	require.NoError(t, err)
	require.ErrorIs(t, strict.Connect(b, imp, a), composition.ErrCannotMapExportToImport)

	lenient := composition.NewLayer(composition.WithSubtypeChecker(c.repo))
	a, err = lenient.Add(exp)
	require.NoError(t, err)
	b, err = lenient.Add(impDef)
	require.NoError(t, err)
	require.NoError(t, lenient.Connect(b, imp, a))
}

func TestLayer_InsertPointCapacity(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()

	splicerDef := c.splicingImporter(t, 1)
	s, err := l.Add(splicerDef)
	require.NoError(t, err)
	x, err := l.Add(c.exporter(t, "x", c.calculator, "calc", "primary"))
	require.NoError(t, err)
	y, err := l.Add(c.exporter(t, "y", c.calculator, "calc", "secondary"))
	require.NoError(t, err)

	primary, ok := splicerDef.GroupImport("primary")
	require.True(t, ok)
	secondary, ok := splicerDef.GroupImport("secondary")
	require.True(t, ok)

	require.NoError(t, l.Connect(s, primary, x))
	err = l.Connect(s, secondary, y)
	require.ErrorIs(t, err, composition.ErrInsertPointFull)

	splices, err := l.Splices(s)
	require.NoError(t, err)
	require.Len(t, splices, 1)
	assert.Equal(t, x, splices[0].Exporting)
	assert.Equal(t, primary.InsertPoint(), splices[0].InsertPoint)
	assert.Nil(t, splices[0].Schedule)

	_, err = l.Disconnect(s, x)
	require.NoError(t, err)
	require.NoError(t, l.Connect(s, secondary, y))

	_, err = l.Splices(composition.NewGroupCompositionID())
	require.ErrorIs(t, err, composition.ErrUnknownGroup)
}

func TestLayer_UnlimitedInsertPoint(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()

	splicerDef := c.splicingImporter(t, -1)
	s, err := l.Add(splicerDef)
	require.NoError(t, err)
	x, err := l.Add(c.exporter(t, "x", c.calculator, "calc", "primary"))
	require.NoError(t, err)
	y, err := l.Add(c.exporter(t, "y", c.calculator, "calc", "secondary"))
	require.NoError(t, err)

	primary, _ := splicerDef.GroupImport("primary")
	secondary, _ := splicerDef.GroupImport("secondary")
	require.NoError(t, l.Connect(s, primary, x))
	require.NoError(t, l.Connect(s, secondary, y))

	splices, err := l.Splices(s)
	require.NoError(t, err)
	require.Len(t, splices, 2)
	require.Equal(t, "primary", splices[0].Import.ContractName())
}

func TestLayer_PublishesChanges(t *testing.T) {
	c := newCatalog(t)
	broker := pubsub.NewBroker[composition.Change]()
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	listener := pubsub.NewListener[composition.Change](ctx, broker)

	l := composition.NewLayer(composition.WithEventBus(broker))
	a, err := l.Add(c.exporter(t, "a", c.calculator, "calc", "calc"))
	require.NoError(t, err)
	bDef := c.importer(t, "b", c.consumer, "calc", "calc")
	b, err := l.Add(bDef)
	require.NoError(t, err)
	require.NoError(t, l.Connect(b, onlyImport(t, bDef), a))
	require.NoError(t, l.Remove(a))

	var kinds []pubsub.EventType
	for range 5 {
		event, ok := listener.Next(ctx)
		require.True(t, ok)
		kinds = append(kinds, event.Type)
	}
	require.Equal(t, []pubsub.EventType{
		composition.GroupAddedEvent,
		composition.GroupAddedEvent,
		composition.ConnectedEvent,
		composition.DisconnectedEvent,
		composition.GroupRemovedEvent,
	}, kinds)
}

func TestLayer_UnknownPartExport(t *testing.T) {
	c := newCatalog(t)
	def := c.exporter(t, "a", c.calculator, "calc", "calc")

	missing, err := part.NewExportRegistrationID(c.calculator.String(), 0, "nope")
	require.NoError(t, err)
	got, err := def.PartExportByID(missing)
	require.ErrorIs(t, err, composition.ErrUnknownExport)
	require.Nil(t, got)
}

func TestLayer_RestoreRoundTrip(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()

	a, err := l.Add(c.exporter(t, "a", c.calculator, "calc", "calc"))
	require.NoError(t, err)
	bDef := c.importer(t, "b", c.consumer, "calc", "calc")
	b, err := l.Add(bDef)
	require.NoError(t, err)
	_, err = l.Add(c.importer(t, "o", c.optional, "calc", "calc"))
	require.NoError(t, err)
	require.NoError(t, l.Connect(b, onlyImport(t, bDef), a))

	data, err := json.Marshal(l.CurrentState())
	require.NoError(t, err)

	var state composition.State
	require.NoError(t, json.Unmarshal(data, &state))
	restored, err := composition.Restore(state)
	require.NoError(t, err)

	require.Equal(t, l.Groups(), restored.Groups())
	for _, id := range l.Groups() {
		want, err := l.Group(id)
		require.NoError(t, err)
		got, err := restored.Group(id)
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	}
	require.True(t, restored.IsConnectedTo(b, onlyImport(t, bDef), a))
	require.Equal(t, len(l.NonSatisfiedImports(true)), len(restored.NonSatisfiedImports(true)))

	again, err := json.Marshal(restored.CurrentState())
	require.NoError(t, err)
	require.JSONEq(t, string(data), string(again))
}

func TestRestore_RejectsInconsistentState(t *testing.T) {
	c := newCatalog(t)
	a := composition.NewGroupCompositionID()
	bDef := c.importer(t, "b", c.consumer, "calc", "calc")
	b := composition.NewGroupCompositionID()

	t.Run("duplicate id", func(t *testing.T) {
		_, err := composition.Restore(composition.State{Groups: []composition.GroupEntry{
			{ID: b, Definition: bDef}, {ID: b, Definition: bDef},
		}})
		require.ErrorIs(t, err, composition.ErrInconsistentState)
		require.ErrorIs(t, err, composition.ErrDuplicateGroup)
	})
	t.Run("dangling connection", func(t *testing.T) {
		_, err := composition.Restore(composition.State{
			Groups:      []composition.GroupEntry{{ID: b, Definition: bDef}},
			Connections: []composition.ConnectionEntry{{Importing: b, Import: onlyImport(t, bDef), Exporting: a}},
		})
		require.ErrorIs(t, err, composition.ErrInconsistentState)
		require.ErrorIs(t, err, composition.ErrUnknownGroup)
	})
	t.Run("nil definition", func(t *testing.T) {
		_, err := composition.Restore(composition.State{Groups: []composition.GroupEntry{{ID: a}}})
		require.ErrorIs(t, err, composition.ErrNilGroup)
	})
}

func TestDirect_ChecksContextBeforeStart(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()
	cmds := composition.Direct(l)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cmds.Add(ctx, c.exporter(t, "a", c.calculator, "calc", "calc"))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, l.Len())

	a, err := cmds.Add(context.Background(), c.exporter(t, "a", c.calculator, "calc", "calc"))
	require.NoError(t, err)
	bDef := c.importer(t, "b", c.consumer, "calc", "calc")
	b, err := cmds.Add(context.Background(), bDef)
	require.NoError(t, err)
	require.ErrorIs(t, cmds.Connect(ctx, b, onlyImport(t, bDef), a), context.Canceled)
	require.NoError(t, cmds.Connect(context.Background(), b, onlyImport(t, bDef), a))
	require.NoError(t, cmds.Disconnect(context.Background(), b, a))
	require.NoError(t, cmds.DisconnectAll(context.Background(), b))
	require.ErrorIs(t, cmds.Remove(ctx, a), context.Canceled)
	require.NoError(t, cmds.Remove(context.Background(), a))
}

func TestLayer_ConcurrentUse(t *testing.T) {
	c := newCatalog(t)
	l := composition.NewLayer()
	a, err := l.Add(c.exporter(t, "a", c.calculator, "calc", "calc"))
	require.NoError(t, err)
	bDef := c.importer(t, "b", c.consumer, "calc", "calc")
	imp := onlyImport(t, bDef)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				b, err := l.Add(bDef)
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, l.Connect(b, imp, a))
				assert.True(t, l.IsConnectedTo(b, imp, a))
				_ = l.NonSatisfiedImports(true)
				assert.NoError(t, l.Remove(b))
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, l.Len())
	require.Empty(t, l.Connections())
}
