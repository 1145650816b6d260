package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/podmatch/podmatch/app/dto"
	"github.com/podmatch/podmatch/app/middleware"
	"github.com/podmatch/podmatch/app/services"
	businessflow "github.com/podmatch/podmatch/business_flow"
	"github.com/podmatch/podmatch/utils"
)

// MatchHandlerInterface defines the contract for match handlers
type MatchHandlerInterface interface {
	ComputeMatches(c fiber.Ctx) error
	ListMatches(c fiber.Ctx) error
	GetMatch(c fiber.Ctx) error
	UpdateStatus(c fiber.Ctx) error
	UpdateNotes(c fiber.Ctx) error
	RecordOutcome(c fiber.Ctx) error
	ExportReport(c fiber.Ctx) error
}

// MatchHandler handles match-related HTTP requests
type MatchHandler struct {
	matchFlow businessflow.MatchFlow
	reports   services.ReportService
	validator *validator.Validate
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchFlow businessflow.MatchFlow, reports services.ReportService) *MatchHandler {
	return &MatchHandler{
		matchFlow: matchFlow,
		reports:   reports,
		validator: validator.New(),
	}
}

func (h *MatchHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MatchHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ComputeMatches scores a campaign against the candidate podcast pool and
// persists the resulting matches
func (h *MatchHandler) ComputeMatches(c fiber.Ctx) error {
	req := dto.ComputeMatchesRequest{CampaignUUID: c.Params("uuid")}
	if req.CampaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	start := time.Now()
	result, err := h.matchFlow.ComputeMatches(h.createRequestContext(c, "/api/v1/campaigns/:uuid/matches/compute"), &req)
	if err != nil {
		middleware.RecordScoringRun("error", 0, 0, time.Since(start))

		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignNotActive(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign is not active", "CAMPAIGN_NOT_ACTIVE", nil)
		}
		if businessflow.IsInvalidWeightConfig(err) {
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Scoring configuration is invalid", "INVALID_WEIGHT_CONFIG", nil)
		}

		log.Println("Match computation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Match computation failed", "MATCH_COMPUTATION_FAILED", nil)
	}

	middleware.RecordScoringRun("success", result.Succeeded, len(result.Failed), time.Since(start))
	return h.SuccessResponse(c, fiber.StatusOK, "Matches computed successfully", result)
}

// ListMatches returns a campaign's matches ranked by overall score
func (h *MatchHandler) ListMatches(c fiber.Ctx) error {
	req := dto.ListMatchesRequest{
		CampaignUUID: c.Params("uuid"),
		Page:         parseQueryInt(c, "page", 1),
		PageSize:     parseQueryInt(c, "page_size", 20),
	}
	if minScore := c.Query("min_score"); minScore != "" {
		if v, err := strconv.ParseFloat(minScore, 64); err == nil {
			req.MinScore = &v
		}
	}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.matchFlow.ListMatches(h.createRequestContext(c, "/api/v1/campaigns/:uuid/matches"), &req)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Match listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Match listing failed", "MATCH_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Matches retrieved successfully", result)
}

// GetMatch returns a single match by UUID
func (h *MatchHandler) GetMatch(c fiber.Ctx) error {
	matchUUID := c.Params("uuid")
	if matchUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Match UUID is required", "MISSING_MATCH_UUID", nil)
	}

	result, err := h.matchFlow.GetMatch(h.createRequestContext(c, "/api/v1/matches/:uuid"), matchUUID)
	if err != nil {
		if businessflow.IsMatchNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Match not found", "MATCH_NOT_FOUND", nil)
		}

		log.Println("Match lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Match lookup failed", "MATCH_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Match retrieved successfully", result)
}

// UpdateStatus advances a match through its workflow
func (h *MatchHandler) UpdateStatus(c fiber.Ctx) error {
	var req dto.UpdateMatchStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.MatchUUID = c.Params("uuid")

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.matchFlow.TransitionStatus(h.createRequestContext(c, "/api/v1/matches/:uuid/status"), &req)
	if err != nil {
		if businessflow.IsMatchNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Match not found", "MATCH_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Invalid status transition", "INVALID_TRANSITION", err.Error())
		}

		log.Println("Match status update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Match status update failed", "TRANSITION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Match status updated successfully", result)
}

// UpdateNotes updates the manually entered fields of a match
func (h *MatchHandler) UpdateNotes(c fiber.Ctx) error {
	var req dto.UpdateMatchNotesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.MatchUUID = c.Params("uuid")

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.matchFlow.UpdateNotes(h.createRequestContext(c, "/api/v1/matches/:uuid/notes"), &req)
	if err != nil {
		if businessflow.IsMatchNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Match not found", "MATCH_NOT_FOUND", nil)
		}
		if errors.Is(err, businessflow.ErrMatchUpdateRequired) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one field must be provided", "MATCH_UPDATE_REQUIRED", nil)
		}

		log.Println("Match notes update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Match notes update failed", "NOTES_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Match notes updated successfully", result)
}

// RecordOutcome records actual campaign results against a match
func (h *MatchHandler) RecordOutcome(c fiber.Ctx) error {
	var req dto.RecordOutcomeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.MatchUUID = c.Params("uuid")

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.matchFlow.RecordOutcome(h.createRequestContext(c, "/api/v1/matches/:uuid/outcome"), &req)
	if err != nil {
		if businessflow.IsMatchNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Match not found", "MATCH_NOT_FOUND", nil)
		}
		if errors.Is(err, businessflow.ErrMatchUpdateRequired) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one field must be provided", "MATCH_UPDATE_REQUIRED", nil)
		}

		log.Println("Match outcome recording failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Match outcome recording failed", "OUTCOME_RECORD_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Match outcome recorded successfully", result)
}

// ExportReport streams the campaign's ranked matches as an Excel workbook
func (h *MatchHandler) ExportReport(c fiber.Ctx) error {
	req := dto.ListMatchesRequest{
		CampaignUUID: c.Params("uuid"),
		Page:         1,
		PageSize:     100,
	}

	ctx := h.createRequestContext(c, "/api/v1/campaigns/:uuid/matches/report")
	result, err := h.matchFlow.ListMatches(ctx, &req)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Match report failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Match report failed", "REPORT_FAILED", nil)
	}

	payload, err := h.reports.BuildMatchReport(result)
	if err != nil {
		log.Println("Match report generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Match report generation failed", "REPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="matches-`+req.CampaignUUID+`.xlsx"`)
	return c.Send(payload)
}

// createRequestContext creates a context with request-scoped values for
// observability
func (h *MatchHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx := context.WithValue(context.Background(), utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	return ctx
}

func parseQueryInt(c fiber.Ctx, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
