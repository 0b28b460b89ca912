// Package logger is a structured event log for interactive sessions.
//
// Each event is written as one JSON object per line. Every entry carries a
// timestamp, the id of the session that produced it and exactly one event.
package logger
