package deploy

// Automation status codes as reported by the remote platform.
const (
	statusError           = -1
	statusBuildError      = 0
	statusBuilding        = 1
	statusReady           = 2
	statusRunning         = 3
	statusPaused          = 4
	statusStopped         = 5
	statusScheduled       = 6
	statusAwaitingTrigger = 7
	statusInactiveTrigger = 8
)

// statusUnset marks an automation whose status field could not be parsed.
// It maps to the build-error code.
const statusUnset = -1000

// automationStatusLabels maps remote status codes to display labels. The
// table is fixed; nothing mutates it after init.
var automationStatusLabels = map[int]string{
	statusError:           "Error",
	statusBuildError:      "Build Error",
	statusBuilding:        "Building",
	statusReady:           "Ready",
	statusRunning:         "Running",
	statusPaused:          "Paused",
	statusStopped:         "Stopped",
	statusScheduled:       "Scheduled",
	statusAwaitingTrigger: "Awaiting Trigger",
	statusInactiveTrigger: "Inactive Trigger",
}

// highRiskStatuses are the codes under which an automation may execute
// without further operator action.
var highRiskStatuses = map[int]bool{
	statusRunning:         true,
	statusScheduled:       true,
	statusAwaitingTrigger: true,
}

// statusLabel returns the display label for a status code. A missing code
// defaults to the build-error label; an unknown code maps to "Unknown".
func statusLabel(code int) string {
	if code == statusUnset {
		code = statusBuildError
	}
	if label, ok := automationStatusLabels[code]; ok {
		return label
	}
	return "Unknown"
}

// isHighRisk reports whether the status code marks a live automation.
func isHighRisk(code int) bool {
	return highRiskStatuses[code]
}
