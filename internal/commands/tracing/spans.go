package tracing

// Span attribute keys for command tracing.
const (
	AttrCommandID     = "command.id"
	AttrCommandType   = "command.type"
	AttrCommandSource = "command.source"

	AttrGroupID     = "group.id"
	AttrImportingID = "group.importing"
	AttrExportingID = "group.exporting"
	AttrContract    = "contract.name"
)

// Span name prefixes.
const (
	SpanPrefixCommand = "command.process."
	SpanPrefixLoader  = "loader."
	SpanPrefixStore   = "store."
)
