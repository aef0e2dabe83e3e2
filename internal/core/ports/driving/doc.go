// Package driving provides interfaces for application entry points
// (primary/inbound ports). The CLI, the chat TUI and any future
// transport consume the pipeline exclusively through these interfaces.
package driving
