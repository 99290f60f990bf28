package session

// Pending is the one queued action a session may hold between command arrival
// and the next scheduler pass. The tick loop takes it, resolves it with one
// exhaustive switch, and clears the slot.
type Pending interface {
	pendingAction()
}

// PendingSkill queues a validated melee skill use against a target.
type PendingSkill struct {
	SkillID  string
	TargetID string
}

func (PendingSkill) pendingAction() {}

// PendingRest queues rest activation. Cancellation is immediate and never
// queued.
type PendingRest struct{}

func (PendingRest) pendingAction() {}

// PendingMeditate queues meditation activation.
type PendingMeditate struct{}

func (PendingMeditate) pendingAction() {}
