// Package schedule holds the reminder schedule and the tick logic that fires
// entries at their wall-clock times.
//
// # Semantics
//
// Each entry is a (time-of-day, message) pair. A tick compares the current
// local HH:MM against every entry; a matching entry whose last-fired date is
// not today fires exactly once and is marked fired for the day before its
// delivery runs, so neither a duplicate tick in the same minute nor a failed
// delivery can re-fire it. Minutes during which the process was not running
// are skipped, never backfilled.
package schedule
