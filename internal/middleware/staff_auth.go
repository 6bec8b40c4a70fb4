package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/repository"
)

// RequireStaff allows only the agency's own users, listed by username, to
// manage the product catalogue.
func RequireStaff(userRepo repository.UserRepository, usernames []string) gin.HandlerFunc {
	staff := make(map[string]struct{}, len(usernames))
	for _, name := range usernames {
		staff[name] = struct{}{}
	}

	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, err := userRepo.FindByID(userID)
		if err != nil {
			respondLookupError(c, err, "User not found")
			return
		}

		if _, ok := staff[user.Username]; !ok {
			apierrors.Forbidden(c, "Only agency staff can manage the catalogue")
			c.Abort()
			return
		}

		c.Next()
	}
}
