package reader

import (
	"time"

	"github.com/char5742/inputreader/internal/dispatch"
	"github.com/char5742/inputreader/internal/policy"
)

// applyStandardInputDispatchPolicyActions implements §4.11: the single
// helper every intercept_* call result is run through. inPolicyFlags
// seeds the returned policy flags (e.g. the raw event/policy flags
// already known from the event source, or an outer touch-level
// policyFlags being threaded through a virtual key); inEventFlags seeds
// the returned key-event flags (e.g. KeyFlagFromSystem). The two seeds
// are independent: raw/policy flags never leak into the event flags, and
// vice versa.
func (r *Reader) applyStandardInputDispatchPolicyActions(when time.Duration, actions policy.ActionBits, inPolicyFlags uint32, inEventFlags uint32) (policyFlags uint32, eventFlags uint32, shouldDispatch bool) {
	policyFlags = inPolicyFlags
	eventFlags = inEventFlags

	if actions&policy.ActionAppSwitchComing != 0 {
		r.dispatcher.NotifyAppSwitchComing(when)
	}
	if actions&policy.ActionWokeHere != 0 {
		policyFlags |= dispatch.PolicyFlagWokeHere
		eventFlags |= dispatch.KeyFlagWokeHere
	}
	if actions&policy.ActionBrightHere != 0 {
		policyFlags |= dispatch.PolicyFlagBrightHere
	}

	shouldDispatch = actions&policy.ActionDispatch != 0
	return policyFlags, eventFlags, shouldDispatch
}
