// Package storage persists the delivery journal and per-slot last-fired
// dates. Persistence is optional; with it enabled a restart inside a
// reminder's minute cannot double-send that day's message.
package storage
