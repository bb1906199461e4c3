package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/claim-service/internal/api/dto"
	"github.com/spec-kit/claim-service/internal/auth"
	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/service"
	apperrors "github.com/spec-kit/claim-service/pkg/util"
)

// ReportsHandler serves administrator statistics and report data. Spreadsheet
// and PDF rendering consume these payloads downstream.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reportService}
}

// Stats GET /reports/stats.
func (h *ReportsHandler) Stats(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.reports.Stats(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Rows GET /reports.
func (h *ReportsHandler) Rows(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := service.ReportFilter{}
	if from, ok := parseDate(c.Query("start_date")); ok {
		filter.CreatedFrom = &from
	}
	if to, ok := parseDate(c.Query("end_date")); ok {
		filter.CreatedTo = &to
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.ClaimStatus(strings.ToUpper(raw))
		if domain.ValidClaimStatus(status) {
			filter.Status = &status
		}
	}
	if raw := c.Query("owner"); raw != "" {
		ownerID := raw
		filter.OwnerID = &ownerID
	}
	filter.Limit, filter.Offset = parsePaging(c)

	rows, err := h.reports.Rows(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ClaimSummary, 0, len(rows))
	for i := range rows {
		items = append(items, claimSummary(&rows[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
