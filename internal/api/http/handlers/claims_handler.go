package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/claim-service/internal/api/dto"
	"github.com/spec-kit/claim-service/internal/auth"
	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/service"
	apperrors "github.com/spec-kit/claim-service/pkg/util"
)

// ClaimsHandler serves claim lifecycle endpoints.
type ClaimsHandler struct {
	claims     *service.ClaimService
	assignment *service.AssignmentService
}

// NewClaimsHandler constructs handler.
func NewClaimsHandler(claimService *service.ClaimService, assignmentService *service.AssignmentService) *ClaimsHandler {
	return &ClaimsHandler{claims: claimService, assignment: assignmentService}
}

// Create POST /claims.
func (h *ClaimsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	claim, err := h.claims.CreateClaim(c.Context(), actor, service.ClaimCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": claimSummary(claim)})
}

// List GET /claims.
func (h *ClaimsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	claims, err := h.claims.ListClaims(c.Context(), actor, parseClaimListQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.ClaimSummary, 0, len(claims))
	for i := range claims {
		items = append(items, claimSummary(&claims[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /claims/:id.
func (h *ClaimsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	claim, comments, err := h.claims.GetClaim(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	// Internal comments never reach a client-facing view.
	if actor.Role == domain.RoleClient {
		visible := comments[:0]
		for _, comment := range comments {
			if !comment.IsInternal {
				visible = append(visible, comment)
			}
		}
		comments = visible
	}
	return c.JSON(fiber.Map{"data": claimDetail(claim, comments)})
}

// AddComment POST /claims/:id/comments.
func (h *ClaimsHandler) AddComment(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.claims.AddComment(c.Context(), actor, c.Params("id"), req.Text, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// SetStatus PUT /claims/:id/status.
func (h *ClaimsHandler) SetStatus(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	claim, err := h.claims.SetStatus(c.Context(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimSummary(claim)})
}

// Assign PUT /claims/:id/assign.
func (h *ClaimsHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.EmployeeID) == "" {
		return apperrors.NewValidationError("employee_id required", nil)
	}
	claim, err := h.assignment.Assign(c.Context(), actor, c.Params("id"), req.EmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimSummary(claim)})
}

// RankEmployees GET /claims/assignment/ranking.
func (h *ClaimsHandler) RankEmployees(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ranking, err := h.assignment.RankEmployees(c.Context(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.EmployeeLoadResponse, 0, len(ranking))
	for _, row := range ranking {
		items = append(items, dto.EmployeeLoadResponse(row))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListPurgeable GET /claims/purgeable.
func (h *ClaimsHandler) ListPurgeable(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := parsePaging(c)
	claims, err := h.claims.ListPurgeable(c.Context(), actor, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ClaimSummary, 0, len(claims))
	for i := range claims {
		items = append(items, claimSummary(&claims[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Purge DELETE /claims/:id.
func (h *ClaimsHandler) Purge(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.claims.PurgeClaim(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "claim deleted"}})
}

func claimSummary(claim *domain.Claim) dto.ClaimSummary {
	return dto.ClaimSummary{
		ID:           claim.ID,
		Title:        claim.Title,
		Type:         claim.Type,
		Status:       claim.Status,
		OwnerID:      claim.OwnerID,
		OwnerName:    claim.OwnerName,
		AssigneeID:   claim.AssigneeID,
		AssigneeName: claim.AssigneeName,
		AssignedAt:   claim.AssignedAt,
		CreatedAt:    claim.CreatedAt,
		UpdatedAt:    claim.UpdatedAt,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		Text:       comment.Text,
		IsInternal: comment.IsInternal,
		AuthorID:   comment.AuthorID,
		AuthorName: comment.AuthorName,
		AuthorRole: comment.AuthorRole,
		CreatedAt:  comment.CreatedAt,
	}
}

func claimDetail(claim *domain.Claim, comments []domain.Comment) dto.ClaimDetailResponse {
	detail := dto.ClaimDetailResponse{
		ClaimSummary: claimSummary(claim),
		Description:  claim.Description,
		Comments:     make([]dto.CommentResponse, 0, len(comments)),
	}
	for i := range comments {
		detail.Comments = append(detail.Comments, commentResponse(&comments[i]))
	}
	return detail
}

func parseClaimListQuery(c *fiber.Ctx) service.ClaimListFilter {
	filter := service.ClaimListFilter{}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.ClaimStatus(strings.ToUpper(strings.TrimSpace(part)))
			if domain.ValidClaimStatus(status) {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if raw := c.Query("type"); raw != "" {
		claimType := raw
		filter.Type = &claimType
	}
	if from, ok := parseDate(c.Query("created_from")); ok {
		filter.CreatedFrom = &from
	}
	if to, ok := parseDate(c.Query("created_to")); ok {
		filter.CreatedTo = &to
	}
	filter.Limit, filter.Offset = parsePaging(c)
	return filter
}

func parsePaging(c *fiber.Ctx) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit", "50"))
	offset, _ = strconv.Atoi(c.Query("offset", "0"))
	return limit, offset
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}
