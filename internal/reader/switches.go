package reader

import "github.com/char5742/inputreader/internal/rawevent"

// handleSwitch runs a SWITCH event through the policy's switch
// interception and the standard action-bits handling. A switch never
// reaches the dispatcher directly — its only effect is whatever side
// effects the returned action bits trigger (app-switch-coming, wake,
// bright).
func (r *Reader) handleSwitch(ev rawevent.Event) {
	actions := r.policy.InterceptSwitch(ev.When, ev.ScanCode, ev.Value)
	r.applyStandardInputDispatchPolicyActions(ev.When, actions, 0, 0)
}
