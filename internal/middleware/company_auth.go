package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/constants"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"gorm.io/gorm"
)

// RequireCompanyAccess checks that the user is a member of the company in the :id parameter
func RequireCompanyAccess(companyRepo repository.CompanyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid company ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		company, err := companyRepo.FindByID(companyID)
		if err != nil {
			respondLookupError(c, err, "Company not found")
			return
		}

		member, err := companyRepo.FindMember(companyID, userID)
		if err != nil {
			// 404 rather than 403 so non-members cannot tell which companies exist
			respondLookupError(c, err, "Company not found")
			return
		}

		c.Set(constants.ContextKeyCompany, *company)
		c.Set(constants.ContextKeyCompanyMember, *member)
		c.Next()
	}
}

// RequireCompanyManager checks that the member loaded by RequireCompanyAccess or
// RequireProjectAccess is a manager. Clients only read.
func RequireCompanyManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetCompanyMember(c)
		if !ok {
			apierrors.Forbidden(c, "Company access required")
			c.Abort()
			return
		}

		if !member.CanManage() {
			apierrors.Forbidden(c, "Only company managers can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetCompany retrieves the company loaded by RequireCompanyAccess
func GetCompany(c *gin.Context) (models.Company, bool) {
	v, exists := c.Get(constants.ContextKeyCompany)
	if !exists {
		return models.Company{}, false
	}
	company, ok := v.(models.Company)
	return company, ok
}

// GetCompanyMember retrieves the caller's membership loaded by the access middleware
func GetCompanyMember(c *gin.Context) (models.CompanyMember, bool) {
	v, exists := c.Get(constants.ContextKeyCompanyMember)
	if !exists {
		return models.CompanyMember{}, false
	}
	member, ok := v.(models.CompanyMember)
	return member, ok
}

func respondLookupError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierrors.NotFound(c, notFound)
	} else {
		apierrors.InternalError(c, "")
	}
	c.Abort()
}
