// Package journal keeps an audit trail of tool calls and command executions
// in SQLite and prunes it on a cron schedule.
package journal
