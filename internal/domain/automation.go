package domain

// QueryActivityKind is the object-type-kind identifier the remote platform
// assigns to Query Activities inside automation steps.
const QueryActivityKind = 300

// RemoteAutomation is a transient view of a remote automation, sourced from
// the gateway on each blast-radius request and never persisted.
type RemoteAutomation struct {
	ID         string
	Name       string
	StatusCode int
	Steps      []AutomationStep
}

// AutomationStep is one step of a remote automation.
type AutomationStep struct {
	Activities []AutomationActivity
}

// AutomationActivity is one activity inside an automation step.
type AutomationActivity struct {
	ObjectTypeKindID   int
	ReferencedObjectID string
}

// AutomationImpact describes one automation affected by changes to a linked
// remote object.
type AutomationImpact struct {
	ID         string
	Name       string
	Status     string
	IsHighRisk bool
}

// BlastRadius is the set of live automations that reference a linked remote
// object. TotalCount counts matching automations only. When Partial is set,
// FailedDetailCount detail fetches did not complete and the analysis may be
// incomplete — a failed fetch never means "does not match", only "unknown".
type BlastRadius struct {
	Automations       []AutomationImpact
	TotalCount        int
	Partial           bool
	FailedDetailCount int
}
