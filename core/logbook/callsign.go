package logbook

import (
	"context"
	"strings"

	"kestrel-eoc/core/store"
)

// ResolveCallsign walks the ordered fallback chain for the callsign recorded
// as logged_by: the user's active position assignment for the event, then
// initials derived from the profile name, then the configured fallback
// literal. Lookup failures degrade to the next tier and are reported as
// warnings; the fallback value itself is what gets stored.
func ResolveCallsign(ctx context.Context, users store.UsersStore, userID, eventID int64, fallback string) (string, []string) {
	var warnings []string
	if fallback == "" {
		fallback = "Unknown"
	}
	if users == nil || userID <= 0 {
		return fallback, warnings
	}
	assignment, err := users.ActiveAssignment(ctx, userID, eventID)
	if err != nil {
		warnings = append(warnings, "callsign assignment lookup failed; falling back to profile initials")
	} else if assignment != nil && strings.TrimSpace(assignment.Callsign) != "" {
		return strings.TrimSpace(assignment.Callsign), warnings
	}
	user, err := users.GetUser(ctx, userID)
	if err != nil {
		warnings = append(warnings, "profile lookup failed; callsign recorded as "+fallback)
		return fallback, warnings
	}
	if initials := profileInitials(user); initials != "" {
		return initials, warnings
	}
	return fallback, warnings
}

func profileInitials(user *store.User) string {
	if user == nil {
		return ""
	}
	var b strings.Builder
	if first := []rune(strings.TrimSpace(user.FirstName)); len(first) > 0 {
		b.WriteString(strings.ToUpper(string(first[0])))
	}
	if last := []rune(strings.TrimSpace(user.LastName)); len(last) > 0 {
		b.WriteString(strings.ToUpper(string(last[0])))
	}
	return b.String()
}
