// Package command runs the external CLI on behalf of tool handlers and turns
// raw process results into structured outputs.
//
// A Runner executes a Spec either to completion (blocking) or detached in its
// own process group (background). Failures are returned as data in Result,
// never as Go errors; Normalize converts a Result into decoded output or a
// *tool.ToolError.
package command
