package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and resolves the caller's
// organization and user into the request context. Routes behind it can rely
// on an organization id being present.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok || claim.OrganizationId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetOrganizationIdInContext(c.Request.Context(), claim.OrganizationId)
		ctx = utils.SetUserIdInContext(ctx, claim.ID)
		ctx = utils.SetUserNameInContext(ctx, claim.Name)
		ctx = utils.SetTokenInContext(ctx, auth)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
