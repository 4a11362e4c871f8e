package logbook

import (
	"strings"
	"time"

	"kestrel-eoc/config"
	"kestrel-eoc/core/store"
)

// NumberSpec derives the static parts of a log number: a three-letter event
// prefix and a YYYYMMDD date segment. The per-event sequence is allocated by
// the store inside the insert transaction, so numbers stay unique and
// strictly increasing under concurrent writers.
func NumberSpec(eventName string, eventDate time.Time, source string, cfg config.LogbookConfig) store.LogNumberSpec {
	pad := cfg.ManualSeqPad
	if source == SourceRadio {
		pad = cfg.RadioSeqPad
	}
	if pad <= 0 {
		pad = 3
	}
	if eventDate.IsZero() {
		eventDate = time.Now().UTC()
	}
	return store.LogNumberSpec{
		Prefix:      eventPrefix(eventName, cfg.FallbackEventName),
		DateSegment: eventDate.UTC().Format("20060102"),
		Pad:         pad,
	}
}

func eventPrefix(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = "Event"
	}
	runes := []rune(name)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return strings.ToUpper(string(runes))
}
