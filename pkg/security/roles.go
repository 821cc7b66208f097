package security

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	RoleStaff = 1
	RoleTech  = 2
	RoleAdmin = 3
)

var roleHierarchy = map[string]int{
	"staff": RoleStaff,
	"tech":  RoleTech,
	"admin": RoleAdmin,
}

// Authorize ensures the user carries at least the required role. Fine-grained
// module+action checks happen in the services via PermissionChecker.
func Authorize(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient permissions"})
			c.Abort()
			return
		}
		userRole, ok := role.(string)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid role format"})
			c.Abort()
			return
		}

		requiredRoleLevel, requiredExists := roleHierarchy[requiredRole]
		userRoleLevel, userExists := roleHierarchy[userRole]

		if !requiredExists || !userExists || userRoleLevel < requiredRoleLevel {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}
