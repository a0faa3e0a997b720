package queue

import "github.com/poiesic/indexfeed/core"

// FlushMonitor provides hooks to observe queue activity.
// Implement this interface to track appends, flushes and the replay
// protocol; the metrics package provides a Prometheus implementation.
type FlushMonitor interface {
	Appended(doc *core.Document, queuedBytes int64)
	FlushStarted(generation, pending int)
	FlushCompleted(generation, indexed, failed int)
	FlushAborted(generation int, err error)
	Replayed(identity string)
	Dropped(identity string, err error)
}

// noopMonitor is a no-op implementation of FlushMonitor
type noopMonitor struct{}

var _ FlushMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Appended(_ *core.Document, _ int64)  {}
func (n *noopMonitor) FlushStarted(_, _ int)               {}
func (n *noopMonitor) FlushCompleted(_, _, _ int)          {}
func (n *noopMonitor) FlushAborted(_ int, _ error)         {}
func (n *noopMonitor) Replayed(_ string)                   {}
func (n *noopMonitor) Dropped(_ string, _ error)           {}
