package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/loopbill/server/internal/shared/response"
)

// ContextKeyBillableID is the gin context key holding the authenticated
// billable's ID.
const ContextKeyBillableID = "billable_id"

// Claims represents the JWT token claims issued by the identity service.
type Claims struct {
	jwt.RegisteredClaims
	BillableID uuid.UUID `json:"billable_id"`
}

// Auth returns a middleware that authenticates requests via a bearer token
// and resolves the billable the request acts on behalf of.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid || claims.BillableID == uuid.Nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(ContextKeyBillableID, claims.BillableID)
		c.Next()
	}
}

// BillableID returns the authenticated billable ID from the gin context,
// or uuid.Nil if the request is unauthenticated.
func BillableID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(ContextKeyBillableID)
	if !ok {
		return uuid.Nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
