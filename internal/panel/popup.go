package panel

import "NoticeBoard/internal/domain"

// urgentPopup returns the first notice flagged to interrupt the viewer.
// Later flagged notices in the same list are ignored.
func urgentPopup(notifications []domain.Notification) (domain.Notification, bool) {
	for _, n := range notifications {
		if n.IsPopup {
			return n, true
		}
	}
	return domain.Notification{}, false
}
