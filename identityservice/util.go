package identityservice

import (
	"strconv"

	"github.com/google/uuid"
)

// MakeToken produces a new universally unique opaque token value.
func MakeToken() string {
	return uuid.NewString()
}

// itoa renders an entity id the way it appears on the wire.
func itoa(id int) string {
	return strconv.Itoa(id)
}
