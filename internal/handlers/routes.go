package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/middleware"
	"github.com/yukikurage/agency-management-api/internal/repository"
)

// Handlers groups every HTTP handler served under /api.
type Handlers struct {
	Auth          *AuthHandler
	Company       *CompanyHandler
	Project       *ProjectHandler
	Task          *TaskHandler
	Invoice       *InvoiceHandler
	Proposal      *ProposalHandler
	Catalog       *CatalogHandler
	ClientService *ClientServiceHandler
	Comment       *CommentHandler
}

// Access holds what the authorization middleware looks up.
type Access struct {
	Users          repository.UserRepository
	Companies      repository.CompanyRepository
	Projects       repository.ProjectRepository
	StaffUsernames []string
}

// RegisterRoutes mounts the API. Reads need company membership, mutations need the manager role.
// The product catalogue is managed by agency staff only.
func RegisterRoutes(r gin.IRouter, h Handlers, access Access) {
	api := r.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", middleware.RequireAuth(), h.Auth.GetCurrentUser)
	}

	companyAccess := middleware.RequireCompanyAccess(access.Companies)
	projectAccess := middleware.RequireProjectAccess(access.Projects, access.Companies)
	manager := middleware.RequireCompanyManager()
	staff := middleware.RequireStaff(access.Users, access.StaffUsernames)

	// Marketplace (any signed-in user)
	marketplace := api.Group("/marketplace", middleware.RequireAuth())
	{
		marketplace.GET("/products", h.Catalog.ListMarketplace)
		marketplace.GET("/products/:product_id", h.Catalog.GetMarketplaceProduct)
	}

	// Catalogue management (staff)
	products := api.Group("/products", middleware.RequireAuth(), staff)
	{
		products.GET("", h.Catalog.ListProducts)
		products.POST("", h.Catalog.CreateProduct)
		products.GET("/:product_id", h.Catalog.GetProduct)
		products.PATCH("/:product_id", h.Catalog.UpdateProduct)
		products.DELETE("/:product_id", h.Catalog.DeleteProduct)
		products.POST("/:product_id/addons", h.Catalog.CreateAddon)
		products.DELETE("/:product_id/addons/:addon_id", h.Catalog.DeleteAddon)
	}

	// Company routes (protected)
	companies := api.Group("/companies")
	companies.Use(middleware.RequireAuth())
	{
		companies.POST("", h.Company.CreateCompany)
		companies.GET("", h.Company.ListCompanies)
		companies.POST("/join", h.Company.JoinCompany)

		company := companies.Group("/:id", companyAccess)
		company.GET("", h.Company.GetCompany)
		company.PUT("", manager, h.Company.UpdateCompany)
		company.DELETE("", manager, h.Company.DeleteCompany)
		company.POST("/regenerate-code", manager, h.Company.RegenerateInviteCode)
		company.DELETE("/members/:user_id", manager, h.Company.RemoveMember)

		company.GET("/projects", h.Project.ListProjects)
		company.POST("/projects", manager, h.Project.CreateProject)

		company.GET("/invoices", h.Invoice.ListInvoices)
		company.POST("/invoices", manager, h.Invoice.CreateInvoice)
		company.GET("/invoices/stats", h.Invoice.InvoiceStats)
		company.GET("/invoices/:invoice_id", h.Invoice.GetInvoice)
		company.PUT("/invoices/:invoice_id", manager, h.Invoice.UpdateInvoice)
		company.DELETE("/invoices/:invoice_id", manager, h.Invoice.DeleteInvoice)
		company.POST("/invoices/:invoice_id/send", manager, h.Invoice.SendInvoice)
		company.POST("/invoices/:invoice_id/void", manager, h.Invoice.VoidInvoice)
		company.POST("/invoices/:invoice_id/cancel", manager, h.Invoice.CancelInvoice)
		company.GET("/invoices/:invoice_id/payments", h.Invoice.ListPayments)
		company.POST("/invoices/:invoice_id/payments", manager, h.Invoice.RegisterPayment)

		company.GET("/proposals", h.Proposal.ListProposals)
		company.POST("/proposals", manager, h.Proposal.CreateProposal)
		company.POST("/proposals/:proposal_id/convert", manager, h.Proposal.ConvertProposal)

		company.GET("/services", h.ClientService.ListServices)
		company.POST("/services", manager, h.ClientService.AssignService)
		company.PATCH("/services/:service_id/status", manager, h.ClientService.UpdateServiceStatus)

		company.GET("/subscriptions", h.ClientService.ListSubscriptions)
		company.POST("/subscriptions", manager, h.ClientService.CreateSubscription)
		company.POST("/subscriptions/:subscription_id/pause", manager, h.ClientService.PauseSubscription)
		company.POST("/subscriptions/:subscription_id/resume", manager, h.ClientService.ResumeSubscription)
		company.POST("/subscriptions/:subscription_id/cancel", manager, h.ClientService.CancelSubscription)

		company.GET("/service-requests", h.ClientService.ListServiceRequests)
		company.POST("/service-requests", h.ClientService.CreateServiceRequest)
		company.PATCH("/service-requests/:request_id/status", manager, h.ClientService.UpdateServiceRequestStatus)
	}

	// Project routes (protected)
	projects := api.Group("/projects/:id")
	projects.Use(middleware.RequireAuth(), projectAccess)
	{
		projects.GET("", h.Project.GetProject)
		projects.PATCH("", manager, h.Project.UpdateProject)
		projects.DELETE("", manager, h.Project.DeleteProject)
		projects.POST("/recalculate", manager, h.Project.RecalculateProgress)

		projects.GET("/additionals", h.Project.ListAdditionals)
		projects.POST("/additionals", manager, h.Project.CreateAdditional)
		projects.DELETE("/additionals/:additional_id", manager, h.Project.DeleteAdditional)

		projects.POST("/stages", manager, h.Project.CreateStage)
		projects.PATCH("/stages/:stage_id", manager, h.Project.UpdateStage)
		projects.DELETE("/stages/:stage_id", manager, h.Project.DeleteStage)
		projects.POST("/stages/:stage_id/tasks", manager, h.Task.CreateTask)
		projects.POST("/stages/:stage_id/tasks/generate", manager, h.Task.GenerateTasks)

		projects.PATCH("/tasks/:task_id", manager, h.Task.UpdateTask)
		projects.DELETE("/tasks/:task_id", manager, h.Task.DeleteTask)
		projects.POST("/tasks/:task_id/subtasks", manager, h.Task.CreateSubtask)

		projects.PATCH("/subtasks/:subtask_id", manager, h.Task.UpdateSubtask)
		projects.DELETE("/subtasks/:subtask_id", manager, h.Task.DeleteSubtask)

		// Comments are open to every member, clients included
		projects.GET("/tasks/:task_id/comments", h.Comment.ListTaskComments)
		projects.POST("/tasks/:task_id/comments", h.Comment.CreateTaskComment)
		projects.GET("/stages/:stage_id/comments", h.Comment.ListStageComments)
		projects.POST("/stages/:stage_id/comments", h.Comment.CreateStageComment)
		projects.PATCH("/comments/:comment_id", h.Comment.UpdateComment)
		projects.DELETE("/comments/:comment_id", h.Comment.DeleteComment)
	}
}
