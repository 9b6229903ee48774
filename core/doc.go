// Package core contains the shared data model of the Robin investigation
// engine: role-based message content with polymorphic parts, the append-only
// conversation history owned by the agent driver, search progress updates and
// the progress sink contract used to surface capability-internal status.
package core
