package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gerrardelliot83-create/furrie-api/pkg/httputil"
)

const (
	ContextCustomerID = "customer_id"
	ContextVetID      = "vet_id"
	ContextRole       = "role"

	RoleCustomer = "customer"
	RoleVet      = "vet"
)

// Claims are the token payload. Subject is the account id; Role decides
// which side of the API the account may call.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Authenticate verifies the bearer token and stores the account identity in
// the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}

		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			abortUnauthorized(c, "invalid token subject")
			return
		}

		c.Set(ContextRole, claims.Role)
		switch claims.Role {
		case RoleVet:
			c.Set(ContextVetID, id)
		default:
			c.Set(ContextCustomerID, id)
		}
		c.Next()
	}
}

// RequireRole rejects authenticated callers with the wrong role.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
				Success: false,
				Error:   &httputil.Error{Code: "FORBIDDEN", Message: "insufficient role"},
			})
			return
		}
		c.Next()
	}
}

// CustomerID extracts the authenticated customer id from the context.
func CustomerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextCustomerID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// VetID extracts the authenticated vet id from the context.
func VetID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextVetID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
		Success: false,
		Error:   &httputil.Error{Code: "UNAUTHORIZED", Message: msg},
	})
}
