package auth

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Actor is the verified principal passed into every workflow call.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     enums.UserRole
}

// ActorFromClaims builds the principal carried by a verified access token.
func ActorFromClaims(claims *AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}
}

// Is reports whether the actor holds role.
func (a Actor) Is(role enums.UserRole) bool {
	return a.UserID != uuid.Nil && a.Role == role
}
