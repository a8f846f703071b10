package tool

import "github.com/google/uuid"

// GenerateUUIDV7 returns a time-ordered UUID, used for primary keys so that
// inserts stay roughly append-only.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}
