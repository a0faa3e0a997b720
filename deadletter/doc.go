// Package deadletter persists documents the pipeline gave up on.
//
// Unclassified sink rejections and fatally-failed flushes mean data loss
// for the affected documents in that cycle; recording them here keeps the
// loss inspectable and replayable by an operator instead of silent.
package deadletter
