// Package otel provides OpenTelemetry integration for tool calls and the
// commands they execute.
package otel
