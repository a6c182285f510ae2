package database

import "time"

// Instance roles recorded in the activity log.
const (
	RoleMain   = "main"
	RoleMinion = "minion"
)

// Instance is one row of the activity log: a bot identity that has received
// at least one dispatched update.
type Instance struct {
	ID          uint      `db:"id"`
	Token       string    `db:"token"`
	Role        string    `db:"role"`
	FirstSeen   time.Time `db:"first_seen"`
	LastSeen    time.Time `db:"last_seen"`
	UpdateCount int64     `db:"update_count"`
}
