package logbook

// Entry types. An entry is either written as events unfold or after the fact;
// retrospective entries carry a mandatory justification for the delay.
const (
	EntryContemporaneous = "contemporaneous"
	EntryRetrospective   = "retrospective"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

const (
	StatusOpen   = "open"
	StatusLogged = "logged"
)

const (
	TypeIncident = "incident"
	TypeMatchLog = "match_log"

	CategoryFootball = "football"
)

const (
	SourceManual = "manual"
	SourceRadio  = "radio"
)

// Match-flow vocabulary. Membership is decided by these exact strings, not by
// pattern matching on free text.
const (
	MatchKickOff           = "Kick Off"
	MatchHalfTime          = "Half Time"
	MatchSecondHalfKickOff = "Second Half Kick Off"
	MatchFullTime          = "Full Time"
	MatchHomeGoal          = "Home Goal"
	MatchAwayGoal          = "Away Goal"
)

var matchFlowTypes = map[string]struct{}{
	MatchKickOff:           {},
	MatchHalfTime:          {},
	MatchSecondHalfKickOff: {},
	MatchFullTime:          {},
	MatchHomeGoal:          {},
	MatchAwayGoal:          {},
}

func IsMatchFlowType(incidentType string) bool {
	_, ok := matchFlowTypes[incidentType]
	return ok
}

// Operational log types are informational entries that are auto-closed on
// creation. The set is case-sensitive and closed. "Accsessablity" is a legacy
// misspelling that existing rows were written with; it must keep matching.
var operationalLogTypes = map[string]struct{}{
	"Attendance":       {},
	"Artist On Stage":  {},
	"Artist Off Stage": {},
	"Timings":          {},
	"Sit Rep":          {},
	"Staffing":         {},
	"Accreditation":    {},
	"Accessibility":    {},
	"Accsessablity":    {},
}

var legacyTypeAliases = map[string]string{
	"Accsessablity": "Accessibility",
}

func IsOperationalType(incidentType string) bool {
	_, ok := operationalLogTypes[incidentType]
	return ok
}

// CanonicalIncidentType maps legacy vocabulary variants to their current
// spelling for display and reporting. The stored value is never rewritten.
func CanonicalIncidentType(incidentType string) string {
	if canonical, ok := legacyTypeAliases[incidentType]; ok {
		return canonical
	}
	return incidentType
}
