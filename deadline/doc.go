// Package deadline exposes the remaining processing time of the hosting
// execution context as an injectable capability.
//
// Retry loops and the sink client consume a Tracker instead of a
// host-specific context type, which keeps the stop conditions testable.
package deadline
