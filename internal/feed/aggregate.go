// Package feed splits the stored notice list into the four feeds served by
// GET /api/notifications.
package feed

import (
	"slices"
	"sort"
	"time"

	"NoticeBoard/internal/domain"
)

const (
	urgentWindow   = 3 * 24 * time.Hour
	upcomingWindow = 7 * 24 * time.Hour
)

var commonTypes = []string{domain.TypeCommon, domain.TypeInfo, domain.TypeUrgent, domain.TypeUpcoming}

// Aggregate builds the payload for sel at instant now. Naive timestamps are
// read as UTC. The input slice is not modified.
//
// Notices not yet started or already ended are dropped; archived ones go to
// the archive feed regardless of their window. A notice ending within three
// days is shown as urgent, within seven days as upcoming. Feed membership is
// decided by the stored type, so a guideline about to expire stays in the
// guidelines feed with the urgent category.
func Aggregate(all []domain.Notification, now time.Time, sel domain.Selection) domain.Payload {
	var active, archived []entry
	for _, n := range all {
		start, hasStart := domain.ParseTimestamp(n.StartDatetime, time.UTC)
		stored := n.Category()

		if stored == domain.TypeArchive {
			archived = append(archived, entry{n: n, stored: stored, start: start, hasStart: hasStart})
			continue
		}

		if hasStart && start.After(now) {
			continue
		}

		display := stored
		if end, ok := domain.ParseTimestamp(n.EndDatetime, time.UTC); ok {
			if end.Before(now) {
				continue
			}
			left := end.Sub(now)
			switch {
			case left <= urgentWindow:
				display = domain.TypeUrgent
			case left <= upcomingWindow && display != domain.TypeUrgent:
				display = domain.TypeUpcoming
			}
		}

		n.Type = display
		active = append(active, entry{n: n, stored: stored, start: start, hasStart: hasStart})
	}

	sortNewestFirst(active)
	sortNewestFirst(archived)

	payload := domain.Payload{
		Guidelines:   []domain.Notification{},
		Common:       []domain.Notification{},
		Departmental: []domain.Notification{},
		Archive:      make([]domain.Notification, 0, len(archived)),
	}
	for _, e := range archived {
		payload.Archive = append(payload.Archive, e.n)
	}

	for _, e := range active {
		switch {
		case e.stored == domain.TypeGuideline:
			payload.Guidelines = append(payload.Guidelines, e.n)
		case slices.Contains(commonTypes, e.stored) && slices.Contains(e.n.Department, domain.Wildcard) && slices.Contains(e.n.Year, domain.Wildcard):
			payload.Common = append(payload.Common, e.n)
		}

		if sel.Scoped() && e.stored == domain.TypeDepartmental &&
			matches(e.n.Department, sel.Department) && matches(e.n.Year, sel.Year) {
			payload.Departmental = append(payload.Departmental, e.n)
		}
	}
	return payload
}

type entry struct {
	n        domain.Notification
	stored   string
	start    time.Time
	hasStart bool
}

// Notices without a start sort as the Unix epoch.
func sortNewestFirst(entries []entry) {
	key := func(e entry) time.Time {
		if e.hasStart {
			return e.start
		}
		return time.Unix(0, 0)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return key(entries[i]).After(key(entries[j]))
	})
}

func matches(audience []string, value string) bool {
	return slices.Contains(audience, domain.Wildcard) || slices.Contains(audience, value)
}

// Expired reports whether a non-archived notice has passed its end time.
func Expired(n domain.Notification, now time.Time) bool {
	if n.Category() == domain.TypeArchive {
		return false
	}
	end, ok := domain.ParseTimestamp(n.EndDatetime, time.UTC)
	return ok && end.Before(now)
}
