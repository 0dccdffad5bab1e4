package composition

import (
	"github.com/zjrosen/composer/internal/group"
	"github.com/zjrosen/composer/internal/pubsub"
)

// Change event types published by a Layer.
const (
	GroupAddedEvent   pubsub.EventType = "group.added"
	GroupRemovedEvent pubsub.EventType = "group.removed"
	ConnectedEvent    pubsub.EventType = "group.connected"
	DisconnectedEvent pubsub.EventType = "group.disconnected"
)

// Change describes one applied mutation. Import and Exporting are set for
// connection events only.
type Change struct {
	Group     GroupCompositionID
	Import    *group.ImportDefinition
	Exporting GroupCompositionID
}
