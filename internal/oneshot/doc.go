// Package oneshot provides a completion marker that can be awaited any number of
// times but fires exactly once.
//
// # What this package must NOT do
//
//   - Reset a fired signal.
//   - Block inside Fire.
package oneshot
