// Package model defines the normalized streaming protocol between the agent
// driver and chat-completion providers. Adapters translate provider-specific
// wire events into low-level block-start/delta/stop StreamEvents so the
// driver's delta accumulator works identically across vendors.
package model
