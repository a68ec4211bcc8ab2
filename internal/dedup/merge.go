package dedup

import (
	"strings"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

// Merge returns existing updated with the mutable fields of incoming.
// A good stored value is never replaced by a generic or empty one; the
// flags only ever turn on. The title is only replaced when the stored one
// is generic, and never on a fuzzy match, so the identity key is stable.
func Merge(existing, incoming *event.Record, exact bool) *event.Record {
	out := existing.Clone()

	if exact && event.IsGenericTitle(out.Title) && !event.IsGenericTitle(incoming.Title) {
		out.SetTitle(incoming.Title)
	}

	if !event.IsGenericDescription(incoming.Description) {
		out.Description = incoming.Description
	} else if strings.TrimSpace(out.Description) == "" {
		out.Description = incoming.Description
	}

	if !event.IsPlaceholderTime(incoming.Time) {
		out.Time = incoming.Time
	}

	if loc := event.CleanText(incoming.Location); loc != "" {
		if !strings.EqualFold(loc, "virtual") || out.Location == "" {
			out.Location = loc
		}
	}

	if incoming.URL != "" && (incoming.URL != incoming.SourceURL || out.URL == "") {
		out.URL = incoming.URL
	}

	out.IsVirtual = out.IsVirtual || incoming.IsVirtual
	out.RequiresRegistration = out.RequiresRegistration || incoming.RequiresRegistration

	if len(incoming.Categories) > 0 {
		out.SetCategories(incoming.Categories)
	}
	if incoming.Host != "" {
		out.Host = incoming.Host
	}
	return out
}
