// Package reader implements the core of the input reader: the
// single-threaded loop that turns raw hardware events into semantic key
// and motion notifications, reassembling fragmented touch frames,
// tracking pointer identity, running the virtual-key bezel state
// machine, mapping coordinates through display rotation, and exposing a
// lock-protected mirror of derived state to external pollers.
//
// Everything in this package assumes it is driven by exactly one
// goroutine calling LoopOnce (or Run) repeatedly; the exported-state
// accessors are the only methods safe to call concurrently from others.
package reader

import (
	"context"
	"fmt"

	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/dispatch"
	"github.com/char5742/inputreader/internal/display"
	"github.com/char5742/inputreader/internal/logger"
	"github.com/char5742/inputreader/internal/policy"
	"github.com/char5742/inputreader/internal/rawevent"
	"github.com/char5742/inputreader/internal/touch"
)

// unknownMetaState is the sentinel the global meta-state cache uses to
// mean "dirty, recompute on next query".
const unknownMetaState int32 = -1

// Reader owns every Device and all derived state. It must only be driven
// from one goroutine; see the package doc.
type Reader struct {
	source     rawevent.EventSource
	policy     policy.Policy
	dispatcher dispatch.Dispatcher
	log        *logger.Logger

	devices    *device.Registry
	identifier touch.PointerIdentifier

	globalMetaState int32
	displayProps    display.Properties

	exported exportedState
}

// New builds a Reader around its three collaborators, using
// touch.NearestNeighborIdentifier as the pointer identity strategy. No
// events flow until the caller starts calling LoopOnce.
func New(source rawevent.EventSource, pol policy.Policy, dispatcher dispatch.Dispatcher) *Reader {
	return &Reader{
		source:          source,
		policy:          pol,
		dispatcher:      dispatcher,
		log:             logger.New("reader"),
		devices:         device.NewRegistry(),
		identifier:      touch.NearestNeighborIdentifier{},
		globalMetaState: unknownMetaState,
		displayProps:    display.Unknown(),
		exported:        newExportedState(),
	}
}

// SetPointerIdentifier overrides the pointer identity strategy, e.g. for
// a deterministic test double.
func (r *Reader) SetPointerIdentifier(id touch.PointerIdentifier) {
	r.identifier = id
}

// Run calls LoopOnce until ctx is done or the source returns a
// non-recoverable error.
func (r *Reader) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := r.LoopOnce(); err != nil {
			return err
		}
	}
}

// LoopOnce blocks for exactly one raw event, restamps its timestamp, and
// dispatches it to the matching handler by type. Unknown types are
// silently ignored. Safe to call repeatedly from a dedicated thread; must
// never be called concurrently with itself.
func (r *Reader) LoopOnce() error {
	ev, err := r.source.GetEvent()
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	ev.When = monotonicNow()

	switch ev.Type {
	case rawevent.DeviceAdded:
		r.handleDeviceAdded(ev)
	case rawevent.DeviceRemoved:
		r.handleDeviceRemoved(ev)
	case rawevent.Syn:
		r.handleSync(ev)
	case rawevent.Key:
		r.handleKey(ev)
	case rawevent.Rel:
		r.handleRelativeMotion(ev)
	case rawevent.Abs:
		r.handleAbsoluteMotion(ev)
	case rawevent.Switch:
		r.handleSwitch(ev)
	}
	return nil
}
