package data

import "github.com/google/uuid"

// isUUID guards uuid columns so malformed ids read as "not found" instead of a cast error.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
