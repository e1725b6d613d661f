package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/models"
	"github.com/Fredric505/taller-api/services"
)

// ResolveUser loads the database user for the validated Auth0 identity and
// stores it in the Gin context. Must run after EnsureValidToken.
func ResolveUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID, err := GetUserID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not extract user information",
				},
			})
			c.Abort()
			return
		}

		db := config.GetDB()
		var user models.User
		if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "User profile not found. Please create a profile first.",
				},
			})
			c.Abort()
			return
		}

		c.Set("current_user", &user)
		c.Next()
	}
}

// GetCurrentUser returns the resolved database user from the Gin context
func GetCurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get("current_user")
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "User not resolved in context"}
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil, &AuthError{Code: "INVALID_USER", Message: "User in context has unexpected type"}
	}
	return user, nil
}

// GetTenant builds the tenant scope for the acting user. Users without a
// workshop (superadmins) cannot act as a tenant.
func GetTenant(c *gin.Context) (services.Tenant, *models.User, error) {
	user, err := GetCurrentUser(c)
	if err != nil {
		return services.Tenant{}, nil, err
	}
	if user.WorkshopID == nil {
		return services.Tenant{}, nil, &AuthError{Code: "NO_WORKSHOP", Message: "User does not belong to a workshop"}
	}
	return services.Tenant{
		WorkshopID: *user.WorkshopID,
		ActorID:    user.ID,
		Role:       user.Role,
	}, user, nil
}

// RequireAdmin aborts unless the acting user manages the workshop
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetCurrentUser(c)
		if err != nil || !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Only the workshop owner can perform this action",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSuperadmin aborts unless the acting user is a superadmin
func RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetCurrentUser(c)
		if err != nil || user.Role != models.RoleSuperadmin {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Superadmin access required",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSubscription blocks workshop users whose trial or paid subscription
// has lapsed. Superadmins bypass the gate.
func RequireSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetCurrentUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not extract user information",
				},
			})
			c.Abort()
			return
		}
		if user.Role == models.RoleSuperadmin {
			c.Next()
			return
		}
		if user.WorkshopID == nil {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NO_WORKSHOP",
					"message": "User does not belong to a workshop",
				},
			})
			c.Abort()
			return
		}

		db := config.GetDB()
		var workshop models.Workshop
		if err := db.First(&workshop, *user.WorkshopID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Workshop not found",
				},
			})
			c.Abort()
			return
		}

		if !workshop.SubscriptionOK(time.Now()) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SUBSCRIPTION_EXPIRED",
					"message": "The workshop subscription has expired",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
