// Package permissions implements the ownership policy: reads are public,
// mutations belong to the resource's owner, superusers override the post
// family but not likes.
package permissions

import "errors"

var (
	// ErrNotAuthenticated is returned when an anonymous subject attempts a
	// mutating action. Distinct from ErrNotOwner so handlers can answer 401
	// instead of 403.
	ErrNotAuthenticated = errors.New("authentication required")
	// ErrNotOwner is returned when an authenticated subject mutates a
	// resource it does not own.
	ErrNotOwner = errors.New("not owner")
)

// Action is an operation a subject requests on a resource.
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// IsRead reports whether the action only observes state.
func (a Action) IsRead() bool {
	return a == ActionList || a == ActionRetrieve
}

// Kind identifies the entity type a resource belongs to.
type Kind string

const (
	KindPost    Kind = "post"
	KindImage   Kind = "image"
	KindLike    Kind = "like"
	KindComment Kind = "comment"
)

// Owned is implemented by every entity the policy governs. Each entity names
// its owner explicitly; there is no runtime attribute probing.
type Owned interface {
	OwnerID() uint
	Kind() Kind
}

// Subject is the identity a request acts as.
type Subject struct {
	UserID        uint
	Username      string
	Superuser     bool
	Authenticated bool
}

// Anonymous is the subject of an unauthenticated request.
var Anonymous = Subject{}

// Authorize decides whether subject may perform action on resource.
// Rules, in order: reads are always allowed; mutations require an
// authenticated subject; superusers override ownership on posts, images and
// comments but deliberately not on likes; otherwise the subject must be the
// owner.
//
// Creation is not decided here: a resource being created has no owner yet,
// ownership is bound to the creating subject at persistence time.
func Authorize(subject Subject, action Action, resource Owned) error {
	if action.IsRead() {
		return nil
	}
	if !subject.Authenticated {
		return ErrNotAuthenticated
	}
	if subject.Superuser && resource.Kind() != KindLike {
		return nil
	}
	if subject.UserID == resource.OwnerID() {
		return nil
	}
	return ErrNotOwner
}
