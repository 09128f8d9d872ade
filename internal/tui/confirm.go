package tui

// confirmKind tags the three shapes the confirm flow can take. Exactly one is
// live at a time, so a failure notice can never double as a live confirm.
type confirmKind int

const (
	confirmHidden confirmKind = iota
	confirmPending
	confirmFailed
)

// confirmState is a two-step guard for irreversible actions: a request opens
// a pending confirmation for a target, confirm fires the bound operation at
// most once, and a failure collapses into a dismiss-only notice.
type confirmState struct {
	kind     confirmKind
	targetID string
	message  string
	inFlight bool
}

func (c *confirmState) visible() bool { return c.kind != confirmHidden }

// request opens a confirmation for targetID. Ignored while an earlier
// confirm is still in flight.
func (c *confirmState) request(targetID, message string) {
	if c.inFlight {
		return
	}
	*c = confirmState{kind: confirmPending, targetID: targetID, message: message}
}

// cancel dismisses the pending confirmation or failure notice without acting.
func (c *confirmState) cancel() {
	if c.inFlight {
		return
	}
	*c = confirmState{}
}

// begin claims the pending confirmation for execution. The second and later
// calls return false until the outcome lands, which is what makes the bound
// operation fire at most once per confirmation.
func (c *confirmState) begin() (string, bool) {
	if c.kind != confirmPending || c.inFlight {
		return "", false
	}
	c.inFlight = true
	return c.targetID, true
}

// resolve clears the gate after the operation succeeded.
func (c *confirmState) resolve() { *c = confirmState{} }

// fail replaces the gate with a dismiss-only failure notice. No retry is
// offered; the user closes it and starts over if they want.
func (c *confirmState) fail(message string) {
	*c = confirmState{kind: confirmFailed, message: message}
}
