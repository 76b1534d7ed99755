package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"condobook/internal/app/policies"
)

// Identity is resolved by the gateway in front of this service and forwarded
// in these headers.
const (
	HeaderUserID      = "X-User-ID"
	HeaderCommunityID = "X-Community-ID"
	HeaderUnitIDs     = "X-Unit-IDs"
	HeaderRole        = "X-Role"

	actorContextKey = "condobook.actor"
)

var privilegedRoles = map[string]bool{
	"manager": true,
	"admin":   true,
	"syndic":  true,
}

// HeaderPrincipal stores the forwarded identity on the request. Requests
// without one continue anonymously.
func HeaderPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		communityID := strings.TrimSpace(c.GetHeader(HeaderCommunityID))
		if userID != "" && communityID != "" {
			c.Set(actorContextKey, policies.Actor{
				UserID:      userID,
				CommunityID: communityID,
				UnitIDs:     splitUnits(c.GetHeader(HeaderUnitIDs)),
				Privileged:  privilegedRoles[strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderRole)))],
			})
		}
		c.Next()
	}
}

func splitUnits(raw string) []string {
	var units []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			units = append(units, part)
		}
	}
	return units
}

func currentActor(c *gin.Context) (policies.Actor, bool) {
	val, exists := c.Get(actorContextKey)
	if !exists {
		return policies.Actor{}, false
	}
	actor, ok := val.(policies.Actor)
	return actor, ok
}

func requireActor(c *gin.Context) (policies.Actor, bool) {
	actor, ok := currentActor(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "identity required", Code: "unauthenticated"})
		return policies.Actor{}, false
	}
	return actor, true
}
