package domain

import "context"

// RemoteRequestKind selects the remote platform operation.
type RemoteRequestKind string

// Remote request kinds understood by the gateway.
const (
	RemoteGetAutomationList   RemoteRequestKind = "get-automation-list"
	RemoteGetAutomationDetail RemoteRequestKind = "get-automation-detail"
	RemoteUpdateQueryText     RemoteRequestKind = "update-query-text"
	RemoteGetQueryDetail      RemoteRequestKind = "get-remote-query-detail"
)

// RemoteRequest is the request spec passed to the gateway. Only the fields
// relevant to the Kind are read.
type RemoteRequest struct {
	Kind RemoteRequestKind

	// get-automation-list
	Page     int
	PageSize int

	// get-automation-detail
	AutomationID string

	// update-query-text
	RemoteObjectID string
	SQLText        string

	// get-remote-query-detail
	RemoteKey string
}

// RawDocument is an untyped response from the remote platform. The remote
// API is loosely typed and internally inconsistent; all defensive parsing
// happens in this core, not in the gateway.
type RawDocument map[string]interface{}

// RemoteGateway bridges to the external marketing-automation platform.
// Each call carries the gateway's fixed per-call timeout budget; a timeout
// surfaces as an ordinary error.
type RemoteGateway interface {
	Request(ctx context.Context, scope Scope, req RemoteRequest) (RawDocument, error)
}

// FeatureFlags gates tenant-level capabilities owned outside this core.
type FeatureFlags interface {
	IsFeatureEnabled(ctx context.Context, tenantID, feature string) (bool, error)
}

// Feature names consulted by this core.
const (
	FeatureTeamCollaboration = "team-collaboration"
)
