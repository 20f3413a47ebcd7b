package billing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loopbill/server/internal/module/billing/gateway"
	"github.com/loopbill/server/internal/shared/middleware"
	"github.com/loopbill/server/internal/shared/response"
)

// Handler handles billing HTTP requests.
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new billing handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers billing routes on the authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	billing := rg.Group("/billing")
	{
		billing.GET("/plans", h.ListPlans)
		billing.POST("/subscription", h.CreateSubscription)
		billing.PUT("/subscription/coupon", h.ApplyCoupon)
	}
}

var billingErrorMappings = []response.ErrorMapping{
	{Err: ErrBillableNotFound, Status: http.StatusNotFound, Code: "BILLABLE_NOT_FOUND", Message: "billable not found"},
	{Err: ErrSubscriptionNotFound, Status: http.StatusNotFound, Code: "SUBSCRIPTION_NOT_FOUND", Message: "no subscription to update"},
	{Err: ErrPlanNotFound, Status: http.StatusNotFound, Code: "PLAN_NOT_FOUND", Message: "plan not found"},
	{Err: ErrProductNotConfigured, Status: http.StatusInternalServerError, Code: "PRODUCT_NOT_CONFIGURED", Message: "billing is not configured for this account type"},
}

// ListPlans returns the active plans for the caller's product type.
// GET /api/v1/billing/plans
func (h *Handler) ListPlans(c *gin.Context) {
	billableID := middleware.BillableID(c)
	if billableID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	plans, err := h.service.ListPlans(c.Request.Context(), billableID)
	if err != nil {
		response.HandleErrorWithDefault(c, err, billingErrorMappings)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": toPlanResponses(plans)})
}

// CreateSubscription subscribes the caller to a plan.
// POST /api/v1/billing/subscription
func (h *Handler) CreateSubscription(c *gin.Context) {
	billableID := middleware.BillableID(c)
	if billableID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	sub, err := h.service.CreateSubscription(c.Request.Context(), billableID, req.Plan, CreateSubscriptionOptions{
		Coupon: req.Coupon,
	})
	if err != nil {
		var actionErr *gateway.PaymentActionRequiredError
		if errors.As(err, &actionErr) {
			response.ErrorWithDetails(c, http.StatusPaymentRequired,
				"PAYMENT_ACTION_REQUIRED",
				"additional payment confirmation is required",
				PaymentActionDetails{
					PaymentIntentID: actionErr.PaymentIntentID,
					ClientSecret:    actionErr.ClientSecret,
				})
			return
		}
		response.HandleErrorWithDefault(c, err, billingErrorMappings)
		return
	}

	c.JSON(http.StatusCreated, toSubscriptionResponse(sub))
}

// ApplyCoupon applies a coupon or promotion code to the caller's current
// subscription.
// PUT /api/v1/billing/subscription/coupon
func (h *Handler) ApplyCoupon(c *gin.Context) {
	billableID := middleware.BillableID(c)
	if billableID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := h.service.ApplyCoupon(c.Request.Context(), billableID, req.Coupon); err != nil {
		response.HandleErrorWithDefault(c, err, billingErrorMappings)
		return
	}

	c.Status(http.StatusNoContent)
}
