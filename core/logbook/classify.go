package logbook

// ShouldAutoClose reports whether an entry is informational rather than an
// open incident: match-flow entries, operational log types, and low-priority
// entries are closed on creation. The result overrides any caller-supplied
// status.
func ShouldAutoClose(incidentType, priority string) bool {
	if IsMatchFlowType(incidentType) {
		return true
	}
	if IsOperationalType(incidentType) {
		return true
	}
	return priority == PriorityLow
}
