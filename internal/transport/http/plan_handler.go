package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/roamplan/roamplan-backend/internal/domain"
	"github.com/roamplan/roamplan-backend/internal/service"
	"github.com/roamplan/roamplan-backend/internal/util"
)

type PlanHandler struct {
	auth  *service.AuthService
	plans *service.PlanService
}

func RegisterPlans(e *echo.Echo, auth *service.AuthService, plans *service.PlanService) {
	handler := &PlanHandler{auth: auth, plans: plans}

	// Creation works for anonymous callers too; the result is simply not
	// stored without a session.
	e.POST("/api/v1/plans", handler.createPlan, OptionalAuth(auth))

	protected := e.Group("/api/v1/plans", RequireAuth(auth))
	protected.GET("", handler.listPlans)
	protected.GET("/:id", handler.getPlan)
	protected.DELETE("/:id", handler.deletePlan)
	protected.POST("/:id/optimize", handler.optimizePlan)
}

func (h *PlanHandler) createPlan(c echo.Context) error {
	var req domain.TravelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	var userID *uuid.UUID
	if id, ok := CurrentUser(c); ok {
		userID = &id
	}

	if wantsEventStream(c) {
		return h.createPlanStreaming(c, userID, req)
	}

	plan, err := h.plans.Create(c.Request().Context(), userID, req, nil)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
		}
		return c.JSON(http.StatusBadGateway, util.Error(err.Error()))
	}
	return c.JSON(http.StatusCreated, util.Data("plan", plan))
}

// createPlanStreaming pushes stage progress as server-sent events while the
// plan is generated, then a final plan (or error) event.
func (h *PlanHandler) createPlanStreaming(c echo.Context, userID *uuid.UUID, req domain.TravelRequest) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	plan, err := h.plans.Create(c.Request().Context(), userID, req, func(p service.Progress) {
		writeEvent(res, "progress", p)
	})
	if err != nil {
		writeEvent(res, "error", util.Error(err.Error()))
		return nil
	}

	writeEvent(res, "plan", plan)
	return nil
}

func writeEvent(res *echo.Response, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data)
	res.Flush()
}

func wantsEventStream(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "text/event-stream")
}

func (h *PlanHandler) listPlans(c echo.Context) error {
	userID, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	limit, offset := parsePagination(c, 20, 0)
	result, err := h.plans.List(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("unable to load travel plans"))
	}

	return c.JSON(http.StatusOK, util.Envelope{
		"items": result.Items,
		"pagination": util.Envelope{
			"limit":  result.Limit,
			"offset": result.Offset,
			"total":  result.Total,
			"count":  len(result.Items),
		},
	})
}

func (h *PlanHandler) getPlan(c echo.Context) error {
	userID, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	planID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("plan id must be a valid UUID"))
	}

	plan, err := h.plans.Get(c.Request().Context(), planID, userID)
	if err != nil {
		return planErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("plan", plan))
}

func (h *PlanHandler) deletePlan(c echo.Context) error {
	userID, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	planID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("plan id must be a valid UUID"))
	}

	if err := h.plans.Delete(c.Request().Context(), planID, userID); err != nil {
		return planErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"id":      planID,
		"message": "plan deleted",
	})
}

func (h *PlanHandler) optimizePlan(c echo.Context) error {
	userID, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	planID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("plan id must be a valid UUID"))
	}

	plan, err := h.plans.OptimizeByID(c.Request().Context(), planID, userID)
	if err != nil {
		return planErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("plan", plan))
}

func planErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		return c.JSON(http.StatusNotFound, util.Error("plan not found"))
	case errors.Is(err, service.ErrPlanForbidden):
		return c.JSON(http.StatusForbidden, util.Error("plan belongs to another user"))
	default:
		return c.JSON(http.StatusBadGateway, util.Error(err.Error()))
	}
}

// parsePagination reads limit/offset query params with bounds applied.
func parsePagination(c echo.Context, defaultLimit, defaultOffset int) (int, int) {
	limit := defaultLimit
	offset := defaultOffset

	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 100 {
		limit = 100
	}

	if raw := strings.TrimSpace(c.QueryParam("offset")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}
