// Package access implements the permission policy for river resources.
//
// The policy is a pure function over the action name, the caller identity
// and the record owner. It carries no request-scoped or mutable state, so
// it can be evaluated anywhere (handlers, tests, background jobs) with the
// same result.
package access

// Action is the logical operation name driving permission and projection
// selection.
type Action string

// Actions exposed by the river resource.
const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// Projection selects the wire representation of a river.
type Projection int

const (
	// ProjectionSummary omits the coordinate path.
	ProjectionSummary Projection = iota
	// ProjectionDetail includes the coordinate path.
	ProjectionDetail
)

// Rule describes what one action requires from the caller.
type Rule struct {
	RequireAuth  bool
	RequireOwner bool
	Projection   Projection
}

// rules is the authoritative action table. Listing is open to anyone and
// renders summaries; every other action requires authentication, and the
// object-resolving ones additionally require ownership.
var rules = map[Action]Rule{
	ActionList:          {RequireAuth: false, RequireOwner: false, Projection: ProjectionSummary},
	ActionRetrieve:      {RequireAuth: true, RequireOwner: true, Projection: ProjectionDetail},
	ActionCreate:        {RequireAuth: true, RequireOwner: false, Projection: ProjectionDetail},
	ActionUpdate:        {RequireAuth: true, RequireOwner: true, Projection: ProjectionDetail},
	ActionPartialUpdate: {RequireAuth: true, RequireOwner: true, Projection: ProjectionDetail},
	ActionDestroy:       {RequireAuth: true, RequireOwner: true, Projection: ProjectionDetail},
}

// RuleFor returns the rule for an action.
func RuleFor(action Action) (Rule, bool) {
	rule, ok := rules[action]
	return rule, ok
}

// Decision is the outcome of a policy evaluation.
type Decision int

const (
	// DecisionAllow permits the action.
	DecisionAllow Decision = iota
	// DecisionUnauthorized rejects an unauthenticated caller (HTTP 401).
	DecisionUnauthorized
	// DecisionNotFound rejects a non-owner. Ownership failures collapse to
	// not-found so callers cannot confirm that a record exists (HTTP 404).
	DecisionNotFound
)

// String returns a readable name for the decision.
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionUnauthorized:
		return "unauthorized"
	default:
		return "not_found"
	}
}

// Decide evaluates the policy for one action. callerID is empty for
// unauthenticated callers. ownerID is empty before a record has been
// resolved; pass it as empty to run only the pre-lookup stage, and call
// Decide again with the record's owner once it has been loaded.
func Decide(action Action, callerID, ownerID string) Decision {
	rule, ok := rules[action]
	if !ok {
		return DecisionNotFound
	}

	if rule.RequireAuth && callerID == "" {
		return DecisionUnauthorized
	}

	if rule.RequireOwner && ownerID != "" && callerID != ownerID {
		return DecisionNotFound
	}

	return DecisionAllow
}
