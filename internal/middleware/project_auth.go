package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/constants"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/repository"
)

// RequireProjectAccess checks that the user is a member of the company owning the project in :id
func RequireProjectAccess(projectRepo repository.ProjectRepository, companyRepo repository.CompanyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		project, err := projectRepo.FindByID(projectID)
		if err != nil {
			respondLookupError(c, err, "Project not found")
			return
		}

		member, err := companyRepo.FindMember(project.CompanyID, userID)
		if err != nil {
			// 404 rather than 403 to avoid leaking project existence
			respondLookupError(c, err, "Project not found")
			return
		}

		c.Set(constants.ContextKeyProject, *project)
		c.Set(constants.ContextKeyCompanyMember, *member)
		c.Next()
	}
}

// GetProject retrieves the project loaded by RequireProjectAccess
func GetProject(c *gin.Context) (models.Project, bool) {
	v, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return models.Project{}, false
	}
	project, ok := v.(models.Project)
	return project, ok
}
