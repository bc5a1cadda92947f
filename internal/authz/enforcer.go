// Package authz decides which relationship a caller needs for an operation.
//
// The capability table lives in policy.csv. A caller is reduced to one
// relationship to the target resource (anyone, authenticated, owner, admin);
// stronger relationships inherit everything granted to weaker ones.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

type Relation string

const (
	Anyone        Relation = "anyone"
	Authenticated Relation = "authenticated"
	Owner         Relation = "owner"
	Admin         Relation = "admin"
)

type Resource string

const (
	Recipe     Resource = "recipe"
	Tag        Resource = "tag"
	Ingredient Resource = "ingredient"
	User       Resource = "user"
	Token      Resource = "token"
)

type Operation string

const (
	List                 Operation = "list"
	Retrieve             Operation = "retrieve"
	Create               Operation = "create"
	Update               Operation = "update"
	Delete               Operation = "delete"
	Favorite             Operation = "favorite"
	ShoppingCart         Operation = "shopping_cart"
	DownloadShoppingCart Operation = "download_shopping_cart"
	Me                   Operation = "me"
	SetPassword          Operation = "set_password"
	Subscriptions        Operation = "subscriptions"
	Subscribe            Operation = "subscribe"
	Login                Operation = "login"
	Logout               Operation = "logout"
)

// RelationFor derives the relationship of a caller to a resource owned by
// ownerID. userID 0 is an anonymous caller; ownerID 0 means the resource has
// no owner.
func RelationFor(userID uint, admin bool, ownerID uint) Relation {
	switch {
	case userID == 0:
		return Anyone
	case admin:
		return Admin
	case ownerID != 0 && ownerID == userID:
		return Owner
	default:
		return Authenticated
	}
}

// Enforcer wraps the casbin enforcer loaded with the embedded policy.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer creates an enforcer from the embedded model and policy. A
// non-empty policy replaces the embedded one.
func NewEnforcer(policy string) (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if policy == "" {
		policy = embeddedPolicy
	}
	if err := loadPolicy(e, policy); err != nil {
		return nil, err
	}

	return &Enforcer{enforcer: e}, nil
}

// MustNewEnforcer is NewEnforcer with the embedded policy, panicking on error.
func MustNewEnforcer() *Enforcer {
	e, err := NewEnforcer("")
	if err != nil {
		panic(err)
	}
	return e
}

func loadPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := e.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Allowed reports whether rel grants op on res.
func (e *Enforcer) Allowed(rel Relation, res Resource, op Operation) (bool, error) {
	ok, err := e.enforcer.Enforce(string(rel), string(res), string(op))
	if err != nil {
		return false, fmt.Errorf("enforce %s %s %s: %w", rel, res, op, err)
	}
	return ok, nil
}

// Required returns the weakest relationship granting op on res, or false
// when the operation is not in the table.
func (e *Enforcer) Required(res Resource, op Operation) (Relation, bool) {
	for _, rel := range []Relation{Anyone, Authenticated, Owner, Admin} {
		if ok, err := e.Allowed(rel, res, op); err == nil && ok {
			return rel, true
		}
	}
	return "", false
}
