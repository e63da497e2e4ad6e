// Package log provides structured logging for the agent using zerolog.
//
// A single package-level Logger is configured once via Init and then
// narrowed per subsystem with WithComponent, so every log line names
// the subsystem (queue, heartbeat, apiclient) that emitted it without
// string-parsing the message.
package log
