package service

import (
	"fmt"

	"github.com/pageza/foodgram/backend/internal/authz"
)

// Actor identifies the caller of an operation. The zero value is anonymous.
type Actor struct {
	UserID uint
	Admin  bool
}

func (a Actor) Anonymous() bool {
	return a.UserID == 0
}

// authorize checks op on res against the capability table. ownerID is the
// author of the target when it has one. Denial of an anonymous caller is
// ErrUnauthenticated, of anyone else ErrForbidden. An operation missing from
// the table is a configuration error, not a denial.
func authorize(e *authz.Enforcer, actor Actor, res authz.Resource, op authz.Operation, ownerID uint) error {
	rel := authz.RelationFor(actor.UserID, actor.Admin, ownerID)
	ok, err := e.Allowed(rel, res, op)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if ok {
		return nil
	}
	if _, known := e.Required(res, op); !known {
		return fmt.Errorf("authorize: no policy grants %s on %s", op, res)
	}
	if actor.Anonymous() {
		return ErrUnauthenticated
	}
	return fmt.Errorf("%s %s: %w", op, res, ErrForbidden)
}
