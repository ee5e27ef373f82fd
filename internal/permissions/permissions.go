// Package permissions holds the authorization predicate shared by every
// catalog operation.
//
// An Actor is the resolved caller of an operation, or nil for anonymous
// callers. Operations declare a Requirement and check it before touching
// any data:
//
//	if err := permissions.Need(permissions.CanMarkReturned).Check(actor); err != nil {
//		return err
//	}
//
// The two permissions are independent flags; neither implies the other.
package permissions

import (
	"errors"
	"fmt"

	"github.com/mrlokans/locallibrary/internal/entities"
)

type Permission string

const (
	// CanMarkReturned covers loan management: viewing every outstanding loan
	// and renewing copies.
	CanMarkReturned Permission = "catalog.can_mark_returned"
	// CanCreateUpdateDestroy covers writes to authors, books, genres and copies.
	CanCreateUpdateDestroy Permission = "catalog.can_create_update_destroy"
)

// All lists every permission known to the catalog.
var All = []Permission{CanMarkReturned, CanCreateUpdateDestroy}

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrPermissionDenied = errors.New("permission denied")
)

// Parse accepts a permission by its full name or its short form without the
// "catalog." prefix.
func Parse(s string) (Permission, error) {
	for _, p := range All {
		if string(p) == s || string(p) == "catalog."+s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// Actor is an authenticated caller.
type Actor struct {
	UserID      uint         `json:"user_id"`
	Username    string       `json:"username"`
	Permissions []Permission `json:"permissions"`
}

// NewActor builds an actor from a stored user and its permission flags.
func NewActor(user *entities.User) *Actor {
	actor := &Actor{UserID: user.ID, Username: user.Username}
	if user.CanMarkReturned {
		actor.Permissions = append(actor.Permissions, CanMarkReturned)
	}
	if user.CanCreateUpdateDestroy {
		actor.Permissions = append(actor.Permissions, CanCreateUpdateDestroy)
	}
	return actor
}

// Operator returns an actor holding every permission. It stands in for the
// single trusted operator when authentication is disabled.
func Operator(userID uint, username string) *Actor {
	return &Actor{
		UserID:      userID,
		Username:    username,
		Permissions: append([]Permission(nil), All...),
	}
}

// Has reports whether the actor holds p.
func (a *Actor) Has(p Permission) bool {
	if a == nil {
		return false
	}
	for _, held := range a.Permissions {
		if held == p {
			return true
		}
	}
	return false
}

// HasPermission reports whether actor holds p. A nil actor holds nothing.
func HasPermission(actor *Actor, p Permission) bool {
	return actor.Has(p)
}

// Requirement is the precondition an operation declares.
type Requirement struct {
	authenticated bool
	permission    Permission
}

// Public requires nothing.
func Public() Requirement {
	return Requirement{}
}

// Authenticated requires any logged-in caller.
func Authenticated() Requirement {
	return Requirement{authenticated: true}
}

// Need requires a logged-in caller holding p.
func Need(p Permission) Requirement {
	return Requirement{authenticated: true, permission: p}
}

// Permission returns the flag the requirement asks for, if any.
func (r Requirement) Permission() Permission {
	return r.permission
}

// Check returns ErrUnauthenticated when a caller is required but actor is
// nil, and an error wrapping ErrPermissionDenied when the flag is missing.
func (r Requirement) Check(actor *Actor) error {
	if !r.authenticated {
		return nil
	}
	if actor == nil {
		return ErrUnauthenticated
	}
	if r.permission != "" && !actor.Has(r.permission) {
		return fmt.Errorf("%w: %s requires %s", ErrPermissionDenied, actor.Username, r.permission)
	}
	return nil
}

func (r Requirement) String() string {
	switch {
	case !r.authenticated:
		return "public"
	case r.permission == "":
		return "authenticated"
	default:
		return string(r.permission)
	}
}
