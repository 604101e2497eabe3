// Package logx configures dripbot's structured logging.
//
// It is a thin wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamps, key=value fields)
//   - An optional JSON file sink
//   - Runtime level/sink swapping on config reload
package logx
