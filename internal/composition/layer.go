// Package composition holds the live composition graph: instantiated groups and
// the connections from an importing group's import to an exporting group.
//
// A Layer is synchronous and safe for concurrent use. Mutations take the write
// lock for their whole validate-then-apply sequence, so a failed call leaves
// the graph untouched and readers never see a half-applied connection.
package composition

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/group"
	"github.com/zjrosen/composer/internal/log"
	"github.com/zjrosen/composer/internal/pubsub"
	"github.com/zjrosen/composer/internal/schedule"
)

// Connection is one edge of the graph together with the part-level mapping that realizes it.
type Connection struct {
	Importing GroupCompositionID
	Import    *group.ImportDefinition
	Exporting GroupCompositionID
	PartMaps  []group.PartImportToPartExportMap
}

// Splice records that the exporting group's schedule is grafted into the
// importing group's schedule at InsertPoint. Schedule is nil when the
// exporting group carries none.
type Splice struct {
	Importing   GroupCompositionID
	InsertPoint schedule.ElementID
	Import      *group.ImportDefinition
	Exporting   GroupCompositionID
	Schedule    *schedule.Definition
}

// UnsatisfiedImport is a group import with no connection.
type UnsatisfiedImport struct {
	Group    GroupCompositionID
	Import   *group.ImportDefinition
	Optional bool
}

type connKey struct {
	importing GroupCompositionID
	contract  string
}

type entry struct {
	def *group.Definition
	seq uint64
}

// Layer is the mutable composition graph.
type Layer struct {
	mu          sync.RWMutex
	groups      map[GroupCompositionID]entry
	connections map[connKey]*Connection
	nextSeq     uint64
	checker     contract.SubtypeChecker
	events      *pubsub.Broker[Change]
	newID       func() GroupCompositionID
}

// Option configures a Layer.
type Option func(*Layer)

// WithEventBus publishes a Change for every applied mutation.
func WithEventBus(b *pubsub.Broker[Change]) Option {
	return func(l *Layer) { l.events = b }
}

// WithSubtypeChecker lets an export satisfy an import whose required type it derives from.
func WithSubtypeChecker(c contract.SubtypeChecker) Option {
	return func(l *Layer) { l.checker = c }
}

// WithIDSource overrides ID allocation. Invalid IDs returned by fn are rejected by Add.
func WithIDSource(fn func() GroupCompositionID) Option {
	return func(l *Layer) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// NewLayer creates an empty graph.
func NewLayer(opts ...Option) *Layer {
	l := &Layer{
		groups:      make(map[GroupCompositionID]entry),
		connections: make(map[connKey]*Connection),
		newID:       NewGroupCompositionID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Layer) publish(t pubsub.EventType, c Change) {
	if l.events != nil {
		l.events.Publish(t, c)
	}
}

// Add instantiates def under a fresh ID.
func (l *Layer) Add(def *group.Definition) (GroupCompositionID, error) {
	if def == nil {
		return GroupCompositionID{}, ErrNilGroup
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.newID()
	if err := l.insert(id, def); err != nil {
		return GroupCompositionID{}, err
	}
	log.Debug(log.CatCompose, "group added", "id", id, "group", def.ID())
	l.publish(GroupAddedEvent, Change{Group: id})
	return id, nil
}

// insert must be called with l.mu held.
func (l *Layer) insert(id GroupCompositionID, def *group.Definition) error {
	if !id.IsValid() {
		return ErrInvalidGroupCompositionID
	}
	if _, ok := l.groups[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGroup, id)
	}
	l.groups[id] = entry{def: def, seq: l.nextSeq}
	l.nextSeq++
	return nil
}

// Remove disconnects every edge touching id and then deletes the group.
func (l *Layer) Remove(id GroupCompositionID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.groups[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}
	l.disconnectWhere(func(c *Connection) bool { return c.Importing == id || c.Exporting == id })
	delete(l.groups, id)
	log.Debug(log.CatCompose, "group removed", "id", id)
	l.publish(GroupRemovedEvent, Change{Group: id})
	return nil
}

// Connect satisfies imp, owned by importing, with the export of exporting.
// An import that is already connected is rejected; disconnect it first.
func (l *Layer) Connect(importing GroupCompositionID, imp *group.ImportDefinition, exporting GroupCompositionID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.prepareConnection(importing, imp, exporting)
	if err != nil {
		log.Warn(log.CatCompose, "connect rejected", "importing", importing, "import", imp, "exporting", exporting, "error", err)
		return err
	}
	l.connections[connKey{importing: importing, contract: c.Import.ContractName()}] = c
	log.Debug(log.CatCompose, "groups connected", "importing", importing, "import", c.Import, "exporting", exporting, "part_maps", len(c.PartMaps))
	l.publish(ConnectedEvent, Change{Group: importing, Import: c.Import, Exporting: exporting})
	return nil
}

// prepareConnection validates a connection without applying it. It must be called with l.mu held.
func (l *Layer) prepareConnection(importing GroupCompositionID, imp *group.ImportDefinition, exporting GroupCompositionID) (*Connection, error) {
	if imp == nil {
		return nil, fmt.Errorf("%w: nil import", ErrUnknownImport)
	}
	importer, ok := l.groups[importing]
	if !ok {
		return nil, fmt.Errorf("%w: importing %s", ErrUnknownGroup, importing)
	}
	exporter, ok := l.groups[exporting]
	if !ok {
		return nil, fmt.Errorf("%w: exporting %s", ErrUnknownGroup, exporting)
	}
	if importing == exporting {
		return nil, fmt.Errorf("%w: %s", ErrSelfConnection, importing)
	}
	if !importer.def.HasImport(imp) {
		return nil, fmt.Errorf("%w: %s on %s", ErrImportNotOwned, imp, importing)
	}
	// Use the definition's own import so every connection shares one pointer.
	owned, _ := importer.def.GroupImport(imp.ContractName())

	key := connKey{importing: importing, contract: owned.ContractName()}
	if prev, ok := l.connections[key]; ok {
		return nil, fmt.Errorf("%w: %s is connected to %s", ErrImportAlreadyConnected, owned, prev.Exporting)
	}

	maps, err := group.Resolve(importer.def, owned, exporter.def, l.checker)
	if err != nil {
		return nil, err
	}

	if owned.HasInsertPoint() {
		if err := l.checkInsertCapacity(importing, importer.def, owned); err != nil {
			return nil, err
		}
	}

	return &Connection{
		Importing: importing,
		Import:    owned,
		Exporting: exporting,
		PartMaps:  maps,
	}, nil
}

func (l *Layer) checkInsertCapacity(importing GroupCompositionID, def *group.Definition, imp *group.ImportDefinition) error {
	sched := def.Schedule()
	if sched == nil {
		return fmt.Errorf("%w: %s has no schedule", group.ErrUnknownInsertPoint, importing)
	}
	vertex, ok := sched.InsertPoint(imp.InsertPoint())
	if !ok {
		return fmt.Errorf("%w: %s", group.ErrUnknownInsertPoint, imp.InsertPoint())
	}
	used := 0
	for k, c := range l.connections {
		if k.importing == importing && c.Import.InsertPoint() == imp.InsertPoint() {
			used++
		}
	}
	if !vertex.AllowsInserts(used + 1) {
		return fmt.Errorf("%w: %s allows %d", ErrInsertPointFull, vertex, vertex.MaxInserts())
	}
	return nil
}

// Disconnect removes every connection from importing to exporting and reports how many were removed.
func (l *Layer) Disconnect(importing, exporting GroupCompositionID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.groups[importing]; !ok {
		return 0, fmt.Errorf("%w: importing %s", ErrUnknownGroup, importing)
	}
	if _, ok := l.groups[exporting]; !ok {
		return 0, fmt.Errorf("%w: exporting %s", ErrUnknownGroup, exporting)
	}
	n := l.disconnectWhere(func(c *Connection) bool { return c.Importing == importing && c.Exporting == exporting })
	return n, nil
}

// DisconnectAll removes every connection in which id takes part on either side.
func (l *Layer) DisconnectAll(id GroupCompositionID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.groups[id]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}
	return l.disconnectWhere(func(c *Connection) bool { return c.Importing == id || c.Exporting == id }), nil
}

// disconnectWhere must be called with l.mu held.
func (l *Layer) disconnectWhere(match func(*Connection) bool) int {
	var removed []*Connection
	for k, c := range l.connections {
		if match(c) {
			removed = append(removed, c)
			delete(l.connections, k)
		}
	}
	slices.SortFunc(removed, compareConnections)
	for _, c := range removed {
		log.Debug(log.CatCompose, "groups disconnected", "importing", c.Importing, "import", c.Import, "exporting", c.Exporting)
		l.publish(DisconnectedEvent, Change{Group: c.Importing, Import: c.Import, Exporting: c.Exporting})
	}
	return len(removed)
}

func compareConnections(a, b *Connection) int {
	return cmp.Or(
		a.Importing.Compare(b.Importing),
		cmp.Compare(a.Import.ContractName(), b.Import.ContractName()),
	)
}

// Contains reports whether id names a group in the graph.
func (l *Layer) Contains(id GroupCompositionID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.groups[id]
	return ok
}

// Len returns the number of groups.
func (l *Layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.groups)
}

// Groups returns every group ID in the order the groups were added.
func (l *Layer) Groups() []GroupCompositionID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.orderedIDs()
}

func (l *Layer) orderedIDs() []GroupCompositionID {
	ids := make([]GroupCompositionID, 0, len(l.groups))
	for id := range l.groups {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b GroupCompositionID) int {
		return cmp.Compare(l.groups[a].seq, l.groups[b].seq)
	})
	return ids
}

// Group returns the definition instantiated under id.
func (l *Layer) Group(id GroupCompositionID) (*group.Definition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}
	return e.def, nil
}

// IsConnected reports whether imp on importing is connected to any group.
func (l *Layer) IsConnected(importing GroupCompositionID, imp *group.ImportDefinition) bool {
	_, ok := l.ConnectedTo(importing, imp)
	return ok
}

// IsConnectedTo reports whether imp on importing is connected to exporting.
func (l *Layer) IsConnectedTo(importing GroupCompositionID, imp *group.ImportDefinition, exporting GroupCompositionID) bool {
	got, ok := l.ConnectedTo(importing, imp)
	return ok && got == exporting
}

// ConnectedTo returns the group satisfying imp on importing.
func (l *Layer) ConnectedTo(importing GroupCompositionID, imp *group.ImportDefinition) (GroupCompositionID, bool) {
	c, ok := l.Connection(importing, imp)
	if !ok {
		return GroupCompositionID{}, false
	}
	return c.Exporting, true
}

// Connection returns the edge for imp on importing.
func (l *Layer) Connection(importing GroupCompositionID, imp *group.ImportDefinition) (Connection, bool) {
	if imp == nil {
		return Connection{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.connections[connKey{importing: importing, contract: imp.ContractName()}]
	if !ok || !c.Import.Equal(imp) {
		return Connection{}, false
	}
	return *c, true
}

// Connections returns every edge ordered by importing group and contract name.
func (l *Layer) Connections() []Connection {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sortedConnections()
}

func (l *Layer) sortedConnections() []Connection {
	all := make([]*Connection, 0, len(l.connections))
	for _, c := range l.connections {
		all = append(all, c)
	}
	slices.SortFunc(all, compareConnections)
	out := make([]Connection, len(all))
	for i, c := range all {
		out[i] = *c
	}
	return out
}

// NonSatisfiedImports lists the group imports with no connection. Imports whose
// part imports all permit zero matches are left out unless includeOptional is set.
func (l *Layer) NonSatisfiedImports(includeOptional bool) []UnsatisfiedImport {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []UnsatisfiedImport
	for _, id := range l.orderedIDs() {
		def := l.groups[id].def
		for _, imp := range def.GroupImports() {
			if _, ok := l.connections[connKey{importing: id, contract: imp.ContractName()}]; ok {
				continue
			}
			optional := def.IsOptionalImport(imp)
			if optional && !includeOptional {
				continue
			}
			out = append(out, UnsatisfiedImport{Group: id, Import: imp, Optional: optional})
		}
	}
	return out
}

// Splices returns the schedule grafts recorded for importing, ordered by contract name.
func (l *Layer) Splices(importing GroupCompositionID) ([]Splice, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.groups[importing]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, importing)
	}
	var out []Splice
	for _, c := range l.sortedConnections() {
		if c.Importing != importing || !c.Import.HasInsertPoint() {
			continue
		}
		out = append(out, Splice{
			Importing:   importing,
			InsertPoint: c.Import.InsertPoint(),
			Import:      c.Import,
			Exporting:   c.Exporting,
			Schedule:    l.groups[c.Exporting].def.Schedule(),
		})
	}
	return out, nil
}
