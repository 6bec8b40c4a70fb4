package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/constants"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
)

// RequireAuth loads the user ID from the session cookie. A session holding
// anything but a positive ID is cleared and treated as logged out.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		userID, ok := sessionUserID(session.Get(constants.ContextKeyUserID))
		if !ok {
			if session.Get(constants.ContextKeyUserID) != nil {
				session.Clear()
				_ = session.Save()
			}
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID returns the user ID set by RequireAuth
func GetUserID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return sessionUserID(v)
}

// sessionUserID accepts the integer types a session store may hand back after decoding.
func sessionUserID(v interface{}) (uint64, bool) {
	var id uint64
	switch n := v.(type) {
	case uint64:
		id = n
	case uint:
		id = uint64(n)
	case int64:
		if n < 0 {
			return 0, false
		}
		id = uint64(n)
	case int:
		if n < 0 {
			return 0, false
		}
		id = uint64(n)
	default:
		return 0, false
	}
	return id, id > 0
}
