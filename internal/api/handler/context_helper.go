package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/CentZek/newesthr-sub000/internal/api/middleware"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/pkg/jwt"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

// MustGetUserID user_id set by JWTAuth. On false a 401 was written and the
// caller should return.
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, middleware.CtxUserID)
}

// MustGetRole role set by JWTAuth
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, middleware.CtxRole)
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// claimsFromContext token claims, nil when the route is unauthenticated
func claimsFromContext(c *gin.Context) *jwt.Claims {
	v, ok := c.Get(middleware.CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

// isStaff HR and admin act on any employee
func isStaff(role string) bool {
	return role == model.RoleHR || role == model.RoleAdmin
}

// allowEmployee employees may only act on their own employee id. Writes 403
// and returns false otherwise.
func allowEmployee(c *gin.Context, employeeID string) bool {
	role, ok := MustGetRole(c)
	if !ok {
		return false
	}
	if isStaff(role) {
		return true
	}
	if own := c.GetString(middleware.CtxEmployeeID); own != "" && own == employeeID {
		return true
	}
	response.Forbidden(c, 10003, "employees may only submit for themselves")
	return false
}
