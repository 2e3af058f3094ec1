// Package policy implements the authorization rules of the portal as pure
// predicates over (actor, method, target). Authorizable entities declare
// their scoping up front through the CenterScoped and OwnedByUser
// interfaces instead of being probed for fields at request time, so every
// rule evaluated here is decided at compile time by what the entity
// implements.
package policy

import "net/http"

// Actor is the identity snapshot of the caller, extracted from the access
// token by the authentication middleware.
type Actor struct {
	UserID        uint64
	Username      string
	Role          string
	CenterID      uint64 // zero when unaffiliated
	IsCenterAdmin bool
	IsActive      bool
	IsLocked      bool
}

// Roles understood by the policy. They mirror the values stored on the
// user rows.
const (
	RoleAdmin       = "admin"
	RoleEvaluator   = "evaluator"
	RoleCandidate   = "candidate"
	RoleCenterAdmin = "center_admin"
)

// CenterScoped is implemented by entities owned by an examination center.
// The bool result is false for records with no center affiliation, which
// makes the policy fall through to the ownership check.
type CenterScoped interface {
	OwningCenter() (uint64, bool)
}

// OwnedByUser is implemented by entities belonging to a single account.
type OwnedByUser interface {
	OwningUser() uint64
}

// Gate reports whether the actor may interact with the system at all.
// Locked or deactivated identities fail every subsequent check.
func Gate(a Actor) bool {
	return a.UserID != 0 && a.IsActive && !a.IsLocked
}

// IsAdmin reports whether the actor holds the system-admin role.
func IsAdmin(a Actor) bool {
	return Gate(a) && a.Role == RoleAdmin
}

// IsCenterAdmin reports whether the actor administers a center (or is a
// system admin, who outranks every center admin).
func IsCenterAdmin(a Actor) bool {
	return Gate(a) && (a.Role == RoleAdmin || a.IsCenterAdmin)
}

// IsEvaluator reports whether the actor may perform evaluation duties.
func IsEvaluator(a Actor) bool {
	return Gate(a) && (a.Role == RoleAdmin || a.Role == RoleEvaluator)
}

// safeMethod reports whether the HTTP method is read-only.
func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CanAccess evaluates the ordered object-level rules, first applicable
// wins: admins see everything; center admins reach objects whose owning
// center matches their own, falling through to ownership for unscoped
// objects; owners reach their own records. Everything else is denied.
func CanAccess(a Actor, obj any) bool {
	if !Gate(a) {
		return false
	}
	if a.Role == RoleAdmin {
		return true
	}
	if a.IsCenterAdmin {
		if scoped, ok := obj.(CenterScoped); ok {
			if centerID, has := scoped.OwningCenter(); has {
				return a.CenterID != 0 && centerID == a.CenterID
			}
		}
	}
	if owned, ok := obj.(OwnedByUser); ok {
		return owned.OwningUser() == a.UserID
	}
	return false
}

// CanAccessOrRead is the read-only variant used by policies that let any
// authenticated, unlocked identity read while mutations still go through
// CanAccess.
func CanAccessOrRead(a Actor, method string, obj any) bool {
	if safeMethod(method) {
		return Gate(a)
	}
	return CanAccess(a, obj)
}
