// Package client binds a remote tool catalog into callable operations.
//
// New fetches the catalog once and exposes one Binding per tool. Call sends
// the generic {tool_name, tool_input} envelope and returns tool_output.
package client
