package uid

import "github.com/google/uuid"

// GenerateRunID identifies one client process in logs and stored results.
func GenerateRunID() string {
	return uuid.NewString()
}
