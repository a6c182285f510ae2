// Package dispatch routes inbound updates through the handler pipeline for
// an instance's role and produces the outbound call, if any, that should be
// returned as the webhook response.
package dispatch

// Role selects which handler pipeline a dispatch uses. It is fixed at
// routing time by the HTTP route that received the update, not stored on
// the instance.
type Role int

const (
	// RoleMain is the primary instance configured at startup.
	RoleMain Role = iota
	// RoleMinion is a dynamically registered secondary instance.
	RoleMinion
)

// String returns the role name used in logs and the activity store.
func (r Role) String() string {
	switch r {
	case RoleMain:
		return "main"
	case RoleMinion:
		return "minion"
	default:
		return "unknown"
	}
}
