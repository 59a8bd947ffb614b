package app

import "sync/atomic"

// ScanGuard is the single-flight flag shared by every cycle trigger.
type ScanGuard struct {
	busy atomic.Bool
}

// NewScanGuard returns a released guard.
func NewScanGuard() *ScanGuard {
	return &ScanGuard{}
}

// TryAcquire sets the flag and reports whether the caller now owns it.
func (g *ScanGuard) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release clears the flag.
func (g *ScanGuard) Release() {
	g.busy.Store(false)
}

// Busy reports whether a cycle holds the flag.
func (g *ScanGuard) Busy() bool {
	return g.busy.Load()
}
