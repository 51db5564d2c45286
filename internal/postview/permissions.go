package postview

import (
	"time"

	"github.com/steelsons/league-feed/backend/internal/models"
)

// DeleteWindow is how long after creation a guest may delete their own post.
const DeleteWindow = 15 * time.Minute

// CanDelete reports whether the delete command is available. Admins may
// delete at any time; guests only inside the window after creation. The
// guest check compares an unverified device clock against the stored
// timestamp, so it is a UX nicety rather than an access-control guarantee.
// The server re-evaluates it with its own clock.
func CanDelete(now time.Time, createdAtMillis int64, role models.Role) bool {
	if role == models.RoleAdmin {
		return true
	}
	return now.Sub(time.UnixMilli(createdAtMillis)) <= DeleteWindow
}
