package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/yukikurage/agency-management-api/internal/constants"
	"github.com/yukikurage/agency-management-api/internal/dto"
	"github.com/yukikurage/agency-management-api/internal/events"
	"github.com/yukikurage/agency-management-api/internal/ledger"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/services"
	"github.com/yukikurage/agency-management-api/internal/testutil"
)

type RoutesTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (s *RoutesTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.db = testutil.NewDB(s.T())
	log := logger.NewNop()
	publisher := events.NewLogPublisher(log)

	userRepo := repository.NewUserRepository(s.db)
	companyRepo := repository.NewCompanyRepository(s.db)
	projectRepo := repository.NewProjectRepository(s.db)
	taskRepo := repository.NewTaskRepository(s.db)
	invoiceRepo := repository.NewInvoiceRepository(s.db)
	productRepo := repository.NewProductRepository(s.db)

	companyService := services.NewCompanyService(companyRepo, log)
	progressService := services.NewProgressService(repository.NewProgressRepository(s.db), log)
	invoiceService := services.NewInvoiceService(invoiceRepo, projectRepo, publisher, services.InvoiceOptions{DueDays: 30, Currency: "USD"}, log)
	paymentService := services.NewPaymentService(repository.NewLedgerRepository(s.db), invoiceRepo, publisher, ledger.Options{}, log)
	subscriptionService := services.NewSubscriptionService(
		repository.NewClientServiceRepository(s.db),
		repository.NewSubscriptionRepository(s.db),
		productRepo,
		invoiceService,
		services.SubscriptionOptions{LeadDays: 5},
		log,
	)

	s.router = gin.New()
	s.router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(s.router, Handlers{
		Auth:    NewAuthHandler(services.NewAuthService(userRepo, log), companyService, log),
		Company: NewCompanyHandler(companyService),
		Project: NewProjectHandler(services.NewProjectService(projectRepo, progressService, log), progressService),
		Task: NewTaskHandler(
			services.NewTaskService(taskRepo, projectRepo, progressService, nil, log),
			log,
		),
		Invoice:  NewInvoiceHandler(invoiceService, paymentService),
		Proposal: NewProposalHandler(services.NewProposalService(repository.NewProposalRepository(s.db), invoiceService, publisher, log)),
		Catalog:  NewCatalogHandler(services.NewCatalogService(productRepo, log)),
		ClientService: NewClientServiceHandler(
			subscriptionService,
			services.NewServiceRequestService(repository.NewServiceRequestRepository(s.db), productRepo, log),
		),
		Comment: NewCommentHandler(services.NewCommentService(repository.NewCommentRepository(s.db), projectRepo, taskRepo, publisher, log)),
	}, Access{
		Users:          userRepo,
		Companies:      companyRepo,
		Projects:       projectRepo,
		StaffUsernames: []string{"staff"},
	})
}

func (s *RoutesTestSuite) do(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RoutesTestSuite) decode(w *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// login signs a new user up and returns the session cookies.
func (s *RoutesTestSuite) login(username string) []*http.Cookie {
	creds := map[string]string{"username": username, "password": "supersecret"}
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/auth/signup", creds, nil).Code)

	w := s.do(http.MethodPost, "/api/auth/login", creds, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	s.Require().NotEmpty(cookies)
	return cookies
}

// join adds the signed-in user to the company as a client.
func (s *RoutesTestSuite) join(company dto.CompanyDTO, cookies []*http.Cookie) {
	w := s.do(http.MethodPost, "/api/companies/join", map[string]string{"invite_code": company.InviteCode}, cookies)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *RoutesTestSuite) createCompany(cookies []*http.Cookie) dto.CompanyDTO {
	w := s.do(http.MethodPost, "/api/companies", map[string]string{"name": "Acme", "tax_id": "B-123"}, cookies)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var company dto.CompanyDTO
	s.decode(w, &company)
	return company
}

func (s *RoutesTestSuite) TestRequiresAuthentication() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/companies", nil, nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/projects/1", nil, nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me", nil, nil).Code)
}

func (s *RoutesTestSuite) TestCompanyRoles() {
	manager := s.login("manager")
	client := s.login("client")
	stranger := s.login("stranger")

	company := s.createCompany(manager)
	s.NotEmpty(company.InviteCode)

	w := s.do(http.MethodPost, "/api/companies/join", map[string]string{"invite_code": company.InviteCode}, client)
	s.Require().Equal(http.StatusOK, w.Code)

	path := fmt.Sprintf("/api/companies/%d", company.ID)

	w = s.do(http.MethodGet, path, nil, client)
	s.Require().Equal(http.StatusOK, w.Code)
	var detail dto.CompanyDetailDTO
	s.decode(w, &detail)
	s.Equal(models.RoleClient, detail.YourRole)
	s.Empty(detail.InviteCode)
	s.Len(detail.Members, 2)

	s.Equal(http.StatusForbidden, s.do(http.MethodPost, path+"/projects", map[string]string{"name": "Site"}, client).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, path, nil, stranger).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/companies/abc", nil, manager).Code)
}

func (s *RoutesTestSuite) TestProjectProgressFlow() {
	manager := s.login("manager")
	company := s.createCompany(manager)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/companies/%d/projects", company.ID), map[string]any{
		"name":  "Website",
		"price": "5000",
	}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var project dto.ProjectDTO
	s.decode(w, &project)
	s.Require().NotNil(project.Price)
	s.Equal("5000.00", *project.Price)

	base := fmt.Sprintf("/api/projects/%d", project.ID)

	w = s.do(http.MethodPost, base+"/stages", map[string]string{"name": "Build"}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var stage dto.StageDTO
	s.decode(w, &stage)
	s.Equal(1, stage.Order)

	var tasks []dto.TaskDTO
	for _, name := range []string{"Header", "Footer"} {
		w = s.do(http.MethodPost, fmt.Sprintf("%s/stages/%d/tasks", base, stage.ID), map[string]string{"name": name}, manager)
		s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
		var task dto.TaskDTO
		s.decode(w, &task)
		s.Equal("1.00", task.Weight)
		tasks = append(tasks, task)
	}

	w = s.do(http.MethodPatch, fmt.Sprintf("%s/tasks/%d", base, tasks[0].ID), map[string]bool{"is_completed": true}, manager)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, base, nil, manager)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &project)
	s.Equal(50, project.Progress)
	s.Require().Len(project.Stages, 1)
	s.Equal(models.StageStatusInProgress, project.Stages[0].Status)

	w = s.do(http.MethodPost, base+"/recalculate", nil, manager)
	s.Require().Equal(http.StatusOK, w.Code)
	var recalculated struct {
		Progress int `json:"progress"`
	}
	s.decode(w, &recalculated)
	s.Equal(50, recalculated.Progress)

	w = s.do(http.MethodPost, fmt.Sprintf("%s/stages/%d/tasks/generate", base, stage.ID), map[string]string{"brief": "landing page"}, manager)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *RoutesTestSuite) TestInvoicePaymentFlow() {
	manager := s.login("manager")
	company := s.createCompany(manager)
	base := fmt.Sprintf("/api/companies/%d/invoices", company.ID)

	w := s.do(http.MethodPost, base, map[string]any{
		"items": []map[string]string{
			{"description": "Design", "quantity": "1", "price": "100.00"},
			{"description": "Hosting", "quantity": "2", "price": "25.00"},
		},
	}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var invoice dto.InvoiceDTO
	s.decode(w, &invoice)
	s.Equal("150.00", invoice.Total)
	s.Equal("150.00", invoice.BalanceDue)
	s.Equal(models.InvoiceStatusDraft, invoice.Status)
	s.Equal(fmt.Sprintf("INV-%d-0001", time.Now().UTC().Year()), invoice.Number)
	s.Len(invoice.Items, 2)

	path := fmt.Sprintf("%s/%d", base, invoice.ID)

	w = s.do(http.MethodPost, path+"/send", nil, manager)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &invoice)
	s.Equal(models.InvoiceStatusSent, invoice.Status)

	w = s.do(http.MethodPost, path+"/payments", map[string]string{"amount": "0", "payment_date": "2026-03-01"}, manager)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, path+"/payments", map[string]string{"amount": "50.00", "payment_date": "2026-03-01"}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var result dto.PaymentResultDTO
	s.decode(w, &result)
	s.Equal("100.00", result.NewBalance)
	s.Equal(models.InvoiceStatusSent, result.Status)
	s.Empty(result.Warning)

	w = s.do(http.MethodPost, path+"/payments", map[string]string{"amount": "120.00", "payment_date": "2026-03-02"}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.decode(w, &result)
	s.Equal("0.00", result.NewBalance)
	s.Equal(models.InvoiceStatusPaid, result.Status)
	s.Equal(dto.OverpaymentWarning, result.Warning)

	w = s.do(http.MethodGet, path+"/payments", nil, manager)
	s.Require().Equal(http.StatusOK, w.Code)
	var payments struct {
		Payments []dto.PaymentDTO `json:"payments"`
	}
	s.decode(w, &payments)
	s.Len(payments.Payments, 2)

	s.Equal(http.StatusConflict, s.do(http.MethodPost, path+"/void", nil, manager).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodDelete, path, nil, manager).Code)

	w = s.do(http.MethodGet, base+"/stats", nil, manager)
	s.Require().Equal(http.StatusOK, w.Code)
	var stats dto.InvoiceStatsDTO
	s.decode(w, &stats)
	s.Equal("150.00", stats.Total)
	s.Equal("0.00", stats.Due)
}

func (s *RoutesTestSuite) TestInvoiceValidation() {
	manager := s.login("manager")
	company := s.createCompany(manager)
	base := fmt.Sprintf("/api/companies/%d/invoices", company.ID)

	var failure struct {
		Details map[string]string `json:"details"`
	}

	w := s.do(http.MethodPost, base, map[string]any{}, manager)
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	s.decode(w, &failure)
	s.Contains(failure.Details, "items")

	w = s.do(http.MethodPost, base, map[string]any{
		"due_date": "03/01/2026",
		"items":    []map[string]string{{"description": "Design", "quantity": "1", "price": "10"}},
	}, manager)
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	s.decode(w, &failure)
	s.Contains(failure.Details, "due_date")

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, base+"/9999", nil, manager).Code)
}

func (s *RoutesTestSuite) TestProposalConversion() {
	manager := s.login("manager")
	company := s.createCompany(manager)
	base := fmt.Sprintf("/api/companies/%d/proposals", company.ID)

	w := s.do(http.MethodPost, base, map[string]any{
		"title": "Brand refresh",
		"items": []map[string]string{{"description": "Logo", "quantity": "1", "price": "800"}},
	}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var proposal dto.ProposalDTO
	s.decode(w, &proposal)
	s.Equal("800.00", proposal.Total)

	convert := fmt.Sprintf("%s/%d/convert", base, proposal.ID)
	w = s.do(http.MethodPost, convert, nil, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var conversion dto.ConversionDTO
	s.decode(w, &conversion)
	s.Equal(models.ProposalStatusAccepted, conversion.Proposal.Status)
	s.Equal(models.InvoiceStatusSent, conversion.Invoice.Status)
	s.Equal("800.00", conversion.Invoice.BalanceDue)
	s.Require().NotNil(conversion.Project.Price)
	s.Equal("800.00", *conversion.Project.Price)

	s.Equal(http.StatusConflict, s.do(http.MethodPost, convert, nil, manager).Code)
}

func (s *RoutesTestSuite) TestDecimalsAcceptJSONNumbers() {
	manager := s.login("manager")
	company := s.createCompany(manager)
	base := fmt.Sprintf("/api/companies/%d/invoices", company.ID)

	w := s.do(http.MethodPost, base, map[string]any{
		"items": []map[string]any{
			{"description": "Design", "quantity": json.Number("1"), "price": json.Number("100.00")},
			{"description": "Hosting", "quantity": json.Number("2"), "price": json.Number("25.005")},
		},
	}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var invoice dto.InvoiceDTO
	s.decode(w, &invoice)
	s.Equal("150.02", invoice.Total)

	path := fmt.Sprintf("%s/%d", base, invoice.ID)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, path+"/send", nil, manager).Code)

	w = s.do(http.MethodPost, path+"/payments", map[string]any{"amount": json.Number("50.00"), "payment_date": "2026-03-01"}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var result dto.PaymentResultDTO
	s.decode(w, &result)
	s.Equal("100.02", result.NewBalance)

	w = s.do(http.MethodPost, path+"/payments", map[string]any{"amount": true, "payment_date": "2026-03-01"}, manager)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RoutesTestSuite) TestMarketplaceOrdering() {
	staff := s.login("staff")
	manager := s.login("manager")
	client := s.login("client")
	company := s.createCompany(manager)
	s.join(company, client)

	product := map[string]any{"name": "Managed Hosting", "category": "hosting", "type": "subscription", "base_price": json.Number("19.99")}
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/api/products", product, manager).Code)

	w := s.do(http.MethodPost, "/api/products", product, staff)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.ProductDTO
	s.decode(w, &created)
	s.Equal("managed-hosting", created.Slug)
	s.Equal(models.BillingCycleMonthly, created.BillingCycle)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/products/%d/addons", created.ID), map[string]string{"name": "Daily backups", "additional_price": "5.00"}, staff)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var addon dto.AddonDTO
	s.decode(w, &addon)

	w = s.do(http.MethodGet, "/api/marketplace/products?category=hosting", nil, client)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var page dto.ProductListResponse
	s.decode(w, &page)
	s.Require().Len(page.Products, 1)
	s.Equal(constants.MarketplacePageSize, page.Pagination.Limit)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/marketplace/products?category=boats", nil, client).Code)

	requests := fmt.Sprintf("/api/companies/%d/service-requests", company.ID)
	w = s.do(http.MethodPost, requests, map[string]any{"product_id": created.ID, "addon_ids": []uint64{addon.ID}}, client)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var request dto.ServiceRequestDTO
	s.decode(w, &request)
	s.Equal("24.99", request.TotalPrice)
	s.Equal(models.ServiceRequestStatusPending, request.Status)

	status := fmt.Sprintf("%s/%d/status", requests, request.ID)
	s.Equal(http.StatusForbidden, s.do(http.MethodPatch, status, map[string]string{"status": "approved"}, client).Code)
	s.Equal(http.StatusOK, s.do(http.MethodPatch, status, map[string]string{"status": "approved"}, manager).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPatch, status, map[string]string{"status": "pending"}, manager).Code)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/companies/%d/services", company.ID), map[string]any{
		"product_id": created.ID,
		"addon_id":   addon.ID,
		"start_date": "2026-04-01",
	}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var assigned dto.AssignedServiceDTO
	s.decode(w, &assigned)
	s.Equal("24.99", assigned.Service.EffectivePrice)
	s.Require().NotNil(assigned.Subscription)
	s.Equal("Managed Hosting + Daily backups", assigned.Subscription.PlanName)
	s.Equal("2026-04-01", assigned.Subscription.NextBillingDate)

	s.Equal(http.StatusConflict, s.do(http.MethodDelete, fmt.Sprintf("/api/products/%d", created.ID), nil, staff).Code)
}

func (s *RoutesTestSuite) TestAdditionalsAndComments() {
	manager := s.login("manager")
	client := s.login("client")
	company := s.createCompany(manager)
	s.join(company, client)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/companies/%d/projects", company.ID), map[string]any{"name": "Website"}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var project dto.ProjectDTO
	s.decode(w, &project)
	base := fmt.Sprintf("/api/projects/%d", project.ID)

	additional := map[string]any{"description": "Extra page", "amount": json.Number("250")}
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, base+"/additionals", additional, client).Code)
	w = s.do(http.MethodPost, base+"/additionals", additional, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var added dto.ProjectAdditionalDTO
	s.decode(w, &added)
	s.Equal("250.00", added.Amount)

	w = s.do(http.MethodGet, base+"/additionals", nil, client)
	s.Require().Equal(http.StatusOK, w.Code)
	var listed struct {
		Total string `json:"total"`
	}
	s.decode(w, &listed)
	s.Equal("250.00", listed.Total)

	w = s.do(http.MethodPost, base+"/stages", map[string]string{"name": "Build"}, manager)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var stage dto.StageDTO
	s.decode(w, &stage)

	comments := fmt.Sprintf("%s/stages/%d/comments", base, stage.ID)
	w = s.do(http.MethodPost, comments, map[string]string{"body": "Can we start Monday?"}, client)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var comment dto.CommentDTO
	s.decode(w, &comment)
	s.Equal("client", comment.User.Username)

	path := fmt.Sprintf("%s/comments/%d", base, comment.ID)
	s.Equal(http.StatusForbidden, s.do(http.MethodPatch, path, map[string]string{"body": "Edited"}, manager).Code)
	s.Equal(http.StatusOK, s.do(http.MethodPatch, path, map[string]string{"body": "Can we start Tuesday?"}, client).Code)
	s.Equal(http.StatusOK, s.do(http.MethodDelete, path, nil, manager).Code)

	w = s.do(http.MethodGet, comments, nil, client)
	s.Require().Equal(http.StatusOK, w.Code)
	var thread struct {
		Comments []dto.CommentDTO `json:"comments"`
	}
	s.decode(w, &thread)
	s.Empty(thread.Comments)

	s.Equal(http.StatusNotFound, s.do(http.MethodPost, base+"/tasks/9999/comments", map[string]string{"body": "Hi"}, client).Code)
}

func TestRoutesTestSuite(t *testing.T) {
	suite.Run(t, new(RoutesTestSuite))
}
