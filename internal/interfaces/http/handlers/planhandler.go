package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"techhive/internal/application/subscription/usecases"
	"techhive/internal/domain/subscription"
	"techhive/internal/shared/id"
	"techhive/internal/shared/logger"
	"techhive/internal/shared/utils"
)

type PlanHandler struct {
	createPlanUC *usecases.CreatePlanUseCase
	updatePlanUC *usecases.UpdatePlanUseCase
	deletePlanUC *usecases.DeletePlanUseCase
	getPlanUC    *usecases.GetPlanUseCase
	listPlansUC  *usecases.ListPlansUseCase
	logger       logger.Interface
}

func NewPlanHandler(
	createPlanUC *usecases.CreatePlanUseCase,
	updatePlanUC *usecases.UpdatePlanUseCase,
	deletePlanUC *usecases.DeletePlanUseCase,
	getPlanUC *usecases.GetPlanUseCase,
	listPlansUC *usecases.ListPlansUseCase,
	logger logger.Interface,
) *PlanHandler {
	return &PlanHandler{
		createPlanUC: createPlanUC,
		updatePlanUC: updatePlanUC,
		deletePlanUC: deletePlanUC,
		getPlanUC:    getPlanUC,
		listPlansUC:  listPlansUC,
		logger:       logger,
	}
}

type CreatePlanRequest struct {
	Name         string                 `json:"name" validate:"required,max=255"`
	Description  string                 `json:"description"`
	PriceKobo    int64                  `json:"price_kobo" validate:"required,gt=0"`
	Currency     string                 `json:"currency"`
	BillingCycle string                 `json:"billing_cycle" validate:"required,oneof=monthly yearly"`
	Features     []string               `json:"features"`
	Limits       map[string]interface{} `json:"limits"`
}

type UpdatePlanRequest struct {
	Name        string                 `json:"name" validate:"omitempty,max=255"`
	Description string                 `json:"description"`
	Features    []string               `json:"features"`
	Limits      map[string]interface{} `json:"limits"`
	IsActive    *bool                  `json:"is_active"`
}

type PlanResponse struct {
	SID              string                 `json:"id"`
	Name             string                 `json:"name"`
	Description      string                 `json:"description"`
	PriceKobo        int64                  `json:"price_kobo"`
	PriceMajor       float64                `json:"price"`
	Currency         string                 `json:"currency"`
	BillingCycle     string                 `json:"billing_cycle"`
	PaystackPlanCode string                 `json:"paystack_plan_code,omitempty"`
	Features         []string               `json:"features"`
	Limits           map[string]interface{} `json:"limits"`
	IsActive         bool                   `json:"is_active"`
	CreatedAt        string                 `json:"created_at"`
}

func planToResponse(p *subscription.Plan) PlanResponse {
	resp := PlanResponse{
		SID:              p.SID(),
		Name:             p.Name(),
		Description:      p.Description(),
		PriceKobo:        p.PriceKobo(),
		PriceMajor:       p.PriceNaira(),
		Currency:         p.Currency(),
		BillingCycle:     p.BillingCycle().String(),
		PaystackPlanCode: p.PaystackPlanCode(),
		IsActive:         p.IsActive(),
		CreatedAt:        p.CreatedAt().Format(time.RFC3339),
	}
	if f := p.Features(); f != nil {
		resp.Features = f.Features
		resp.Limits = f.Limits
	}
	return resp
}

// ListPlans is public; readers compare tiers before subscribing.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true" && c.GetString("user_role") == "admin"

	plans, err := h.listPlansUC.Execute(c.Request.Context(), usecases.ListPlansQuery{
		IncludeInactive: includeInactive,
	})
	if err != nil {
		h.logger.Errorw("failed to list plans", "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to list plans")
		return
	}

	responses := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		responses = append(responses, planToResponse(p))
	}

	utils.OKResponse(c, responses)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	planSID, err := utils.ParseSIDParam(c, "id", id.PrefixPlan, "plan")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	plan, err := h.getPlanUC.Execute(c.Request.Context(), planSID)
	if err != nil {
		if errors.Is(err, subscription.ErrPlanNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "plan not found")
			return
		}
		h.logger.Errorw("failed to get plan", "error", err, "plan_sid", planSID)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to get plan")
		return
	}

	utils.OKResponse(c, planToResponse(plan))
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("failed to bind request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	plan, err := h.createPlanUC.Execute(c.Request.Context(), usecases.CreatePlanCommand{
		Name:         req.Name,
		Description:  req.Description,
		PriceKobo:    req.PriceKobo,
		Currency:     req.Currency,
		BillingCycle: req.BillingCycle,
		Features:     req.Features,
		Limits:       req.Limits,
	})
	if err != nil {
		h.logger.Errorw("failed to create plan", "error", err, "name", req.Name)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to create plan: "+err.Error())
		return
	}

	utils.CreatedResponse(c, planToResponse(plan), "plan created successfully")
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planSID, err := utils.ParseSIDParam(c, "id", id.PrefixPlan, "plan")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("failed to bind request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	plan, err := h.updatePlanUC.Execute(c.Request.Context(), usecases.UpdatePlanCommand{
		PlanSID:     planSID,
		Name:        req.Name,
		Description: req.Description,
		Features:    req.Features,
		Limits:      req.Limits,
		IsActive:    req.IsActive,
	})
	if err != nil {
		if errors.Is(err, subscription.ErrPlanNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "plan not found")
			return
		}
		h.logger.Errorw("failed to update plan", "error", err, "plan_sid", planSID)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to update plan")
		return
	}

	utils.OKResponse(c, planToResponse(plan), "plan updated successfully")
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	planSID, err := utils.ParseSIDParam(c, "id", id.PrefixPlan, "plan")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.deletePlanUC.Execute(c.Request.Context(), usecases.DeletePlanCommand{PlanSID: planSID}); err != nil {
		switch {
		case errors.Is(err, subscription.ErrPlanNotFound):
			utils.ErrorResponse(c, http.StatusNotFound, "plan not found")
		case errors.Is(err, subscription.ErrPlanInUse):
			utils.ErrorResponse(c, http.StatusConflict, "plan has subscriptions; deactivate it instead")
		default:
			h.logger.Errorw("failed to delete plan", "error", err, "plan_sid", planSID)
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to delete plan")
		}
		return
	}

	utils.OKResponse(c, nil, "plan deleted successfully")
}
