package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/service"
	"github.com/localbase/localbase-backend/internal/middleware"
	"github.com/localbase/localbase-backend/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type BusinessController struct {
	businessService  service.BusinessService
	analyticsService service.AnalyticsService
	paymentService   service.PaymentService
}

func NewBusinessController(
	businessService service.BusinessService,
	analyticsService service.AnalyticsService,
	paymentService service.PaymentService,
) *BusinessController {
	return &BusinessController{
		businessService:  businessService,
		analyticsService: analyticsService,
		paymentService:   paymentService,
	}
}

// ListBusinesses lists the directory with optional category, search and
// distance filters
// GET /api/v1/businesses
func (ctrl *BusinessController) ListBusinesses(c *gin.Context) {
	var query model.BusinessListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := ctrl.businessService.ListBusinesses(service.BusinessListOptions{
		Category:  query.Category,
		Search:    query.Search,
		Latitude:  query.Latitude,
		Longitude: query.Longitude,
		RadiusKm:  query.RadiusKm,
		Page:      query.Page,
		PageSize:  query.PageSize,
	})
	if err != nil {
		respondError(c, err, "list businesses")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBusiness GET /api/v1/businesses/:id
func (ctrl *BusinessController) GetBusiness(c *gin.Context) {
	business, err := ctrl.businessService.GetBusinessByID(c.Param("id"))
	if err != nil {
		respondError(c, err, "load business")
		return
	}
	c.JSON(http.StatusOK, business)
}

// GetMyBusinesses GET /api/v1/users/me/businesses
func (ctrl *BusinessController) GetMyBusinesses(c *gin.Context) {
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	businesses, err := ctrl.businessService.GetMyBusinesses(owner)
	if err != nil {
		respondError(c, err, "load my businesses")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"businesses": businesses,
		"count":      len(businesses),
	})
}

// CreateBusiness registers a business owned by the signed-in wallet
// POST /api/v1/businesses
func (ctrl *BusinessController) CreateBusiness(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	var req model.CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid business request", map[string]interface{}{
			"error": err.Error(),
		})
		respondBindError(c, err)
		return
	}

	business, err := ctrl.businessService.AddBusiness(c.Request.Context(), owner, req)
	if err != nil {
		respondError(c, err, "create business")
		return
	}

	log.Info("Business created", map[string]interface{}{
		"business_id": business.ID,
		"owner":       owner,
		"on_chain":    business.OnChainRegistered,
	})
	c.JSON(http.StatusCreated, business)
}

// UpdateBusiness PUT /api/v1/businesses/:id
func (ctrl *BusinessController) UpdateBusiness(c *gin.Context) {
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	var req model.UpdateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	business, err := ctrl.businessService.UpdateBusiness(owner, c.Param("id"), req)
	if err != nil {
		respondError(c, err, "update business")
		return
	}
	c.JSON(http.StatusOK, business)
}

// DeleteBusiness DELETE /api/v1/businesses/:id
func (ctrl *BusinessController) DeleteBusiness(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := ctrl.businessService.DeleteBusiness(owner, id); err != nil {
		respondError(c, err, "delete business")
		return
	}

	log.Info("Business deleted", map[string]interface{}{
		"business_id": id,
		"owner":       owner,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Business deleted",
	})
}

// ToggleStatus POST /api/v1/businesses/:id/toggle-status
func (ctrl *BusinessController) ToggleStatus(c *gin.Context) {
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	business, err := ctrl.businessService.ToggleBusinessStatus(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		respondError(c, err, "update business status")
		return
	}
	c.JSON(http.StatusOK, business)
}

// GetAnalytics GET /api/v1/businesses/:id/analytics?period=
func (ctrl *BusinessController) GetAnalytics(c *gin.Context) {
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	period := model.AnalyticsPeriod(c.DefaultQuery("period", string(model.PeriodWeek)))
	analytics, err := ctrl.analyticsService.GetBusinessAnalytics(owner, c.Param("id"), period)
	if err != nil {
		respondError(c, err, "load business analytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// GetOnChain returns the contract's view of a business
// GET /api/v1/businesses/:id/onchain
func (ctrl *BusinessController) GetOnChain(c *gin.Context) {
	info, err := ctrl.businessService.GetOnChainInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "load on-chain business")
		return
	}
	c.JSON(http.StatusOK, info)
}

// ExportTransactions streams the business's payments as a spreadsheet
// GET /api/v1/businesses/:id/transactions/export
func (ctrl *BusinessController) ExportTransactions(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	id := c.Param("id")
	txns, err := ctrl.paymentService.GetBusinessTransactions(owner, id)
	if err != nil {
		respondError(c, err, "export transactions")
		return
	}
	business, err := ctrl.businessService.GetBusinessByID(id)
	if err != nil {
		respondError(c, err, "export transactions")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.ExportFilename(id)+`"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := report.WriteTransactions(c.Writer, business, txns); err != nil {
		log.Error("Failed to write transaction export", err, map[string]interface{}{
			"business_id": id,
		})
		return
	}

	log.Info("Transactions exported", map[string]interface{}{
		"business_id":  id,
		"transactions": len(txns),
	})
}
