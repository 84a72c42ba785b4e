package auth

import "github.com/cliptube/backend/internal/models"

// Action is a mutation kind checked by CanMutate.
type Action int

const (
	ActionUpdate Action = iota
	ActionDelete
)

// CanMutate reports whether the authenticated identity may apply the action
// to a resource owned by ownerID. Updates are owner-only; deletes also admit
// admins. Handlers confirm the resource exists before calling this, so a
// missing resource reads as not-found rather than forbidden.
func CanMutate(identity models.User, ownerID string, action Action) bool {
	if identity.ID != "" && identity.ID == ownerID {
		return true
	}
	return action == ActionDelete && identity.IsAdmin()
}
