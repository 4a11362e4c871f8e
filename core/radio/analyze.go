package radio

import (
	"strings"
)

// Analysis is the coarse classification attached to every processed message.
type Analysis struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// IncidentDetails is the structured extraction used when a message is turned
// into a logbook entry.
type IncidentDetails struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Analyzer classifies radio transcripts. Implementations are pure functions
// of the message text; the bridge treats them as opaque collaborators.
type Analyzer interface {
	Analyze(message string) Analysis
	ShouldCreateIncident(message string) bool
	ExtractIncidentDetails(message string) IncidentDetails
}

// KeywordAnalyzer is the built-in heuristic classifier: fixed keyword tables
// per category, severity words for priority, and a routine-traffic filter.
type KeywordAnalyzer struct{}

func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

var categoryKeywords = []struct {
	category     string
	incidentType string
	words        []string
}{
	{"medical", "Medical", []string{"medic", "medical", "injury", "injured", "casualty", "ambulance", "unconscious", "collapsed", "bleeding", "first aid", "defib"}},
	{"fire", "Fire", []string{"fire", "smoke", "burning", "flames", "alarm activation"}},
	{"security", "Security", []string{"fight", "fighting", "assault", "weapon", "knife", "theft", "stolen", "eject", "ejection", "aggressive", "intoxicated", "trespass", "pitch invasion"}},
	{"crowd", "Crowd Management", []string{"crowd", "surge", "crush", "congestion", "overcrowding", "queue", "gate pressure", "bottleneck"}},
	{"safeguarding", "Safeguarding", []string{"missing child", "lost child", "vulnerable", "safeguarding"}},
}

var highPriorityWords = []string{
	"urgent", "emergency", "immediately", "unconscious", "not breathing",
	"weapon", "knife", "fire", "crush", "surge", "collapsed", "missing child",
}

var lowPriorityWords = []string{
	"minor", "routine", "no further action", "resolved", "all clear",
}

var routinePhrases = []string{
	"radio check", "all quiet", "all clear", "nothing to report",
	"sit rep", "sitrep", "time check", "comms check", "loud and clear",
}

func (a *KeywordAnalyzer) Analyze(message string) Analysis {
	lower := strings.ToLower(message)
	analysis := Analysis{Category: "general", Priority: priorityFor(lower)}
	for _, entry := range categoryKeywords {
		if containsAny(lower, entry.words) {
			analysis.Category = entry.category
			break
		}
	}
	return analysis
}

// ShouldCreateIncident is true when the transcript matches a known category
// and is not routine net traffic.
func (a *KeywordAnalyzer) ShouldCreateIncident(message string) bool {
	lower := strings.ToLower(message)
	if containsAny(lower, routinePhrases) {
		return false
	}
	for _, entry := range categoryKeywords {
		if containsAny(lower, entry.words) {
			return true
		}
	}
	return false
}

func (a *KeywordAnalyzer) ExtractIncidentDetails(message string) IncidentDetails {
	lower := strings.ToLower(message)
	details := IncidentDetails{
		Type:        "Other",
		Priority:    priorityFor(lower),
		Location:    extractLocation(message),
		Description: strings.TrimSpace(message),
	}
	for _, entry := range categoryKeywords {
		if containsAny(lower, entry.words) {
			details.Type = entry.incidentType
			break
		}
	}
	return details
}

func priorityFor(lower string) string {
	if containsAny(lower, highPriorityWords) {
		return "high"
	}
	if containsAny(lower, lowPriorityWords) {
		return "low"
	}
	return "medium"
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

var locationMarkers = []string{" at ", " near ", " outside ", " by "}

// extractLocation grabs the trailing clause after a location preposition.
// Best-effort only; an empty string is a valid outcome.
func extractLocation(message string) string {
	lower := strings.ToLower(message)
	for _, marker := range locationMarkers {
		idx := strings.LastIndex(lower, marker)
		if idx < 0 {
			continue
		}
		loc := strings.TrimSpace(message[idx+len(marker):])
		loc = strings.Trim(loc, ".,;!?")
		if loc != "" {
			return loc
		}
	}
	return ""
}

// Keywords tokenizes text into lower-cased words longer than three
// characters. Both the duplicate detector and tests rely on this exact rule.
func Keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) > 3 {
			out = append(out, f)
		}
	}
	return out
}
