package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/david/tender-finder/internal/models"
)

type applicationInput struct {
	TenderID              string            `json:"tenderId" validate:"required,uuid"`
	CoverLetter           string            `json:"coverLetter" validate:"max=20000"`
	ProposedAmount        *float64          `json:"proposedAmount" validate:"omitempty,gte=0"`
	DurationWeeks         *int              `json:"durationWeeks" validate:"omitempty,gte=0"`
	MethodStatement       string            `json:"methodStatement" validate:"max=20000"`
	ComplianceDeclaration bool              `json:"complianceDeclaration"`
	Documents             models.StringList `json:"documents" validate:"max=50"`
}

func (s *Server) handleCreateApplication(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	var in applicationInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}

	ctx := c.Request().Context()
	tenderID := uuid.MustParse(in.TenderID)
	t, err := s.Store.GetTender(ctx, tenderID)
	if err != nil {
		return s.storeError(c, err, "Tender")
	}
	if t.Status != models.TenderApproved {
		return errorJSON(c, http.StatusBadRequest, "Tender is not open for applications")
	}

	a := &models.Application{
		UserID:                who.UserID,
		TenderID:              tenderID,
		CoverLetter:           strings.TrimSpace(in.CoverLetter),
		ProposedAmount:        in.ProposedAmount,
		DurationWeeks:         in.DurationWeeks,
		MethodStatement:       strings.TrimSpace(in.MethodStatement),
		ComplianceDeclaration: in.ComplianceDeclaration,
		Documents:             in.Documents.Clean(),
		Status:                models.ApplicationSubmitted,
	}
	if err := s.Store.CreateApplication(ctx, a); err != nil {
		return s.storeError(c, err, "Application")
	}
	s.log.Info("application submitted", zap.String("application_id", a.ID.String()), zap.String("tender_id", tenderID.String()))
	return c.JSON(http.StatusCreated, a)
}

func (s *Server) handleUserApplications(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}
	if userID != who.UserID && !who.IsAdmin() {
		return errorJSON(c, http.StatusForbidden, "Forbidden")
	}

	apps, err := s.Store.ListApplicationsByUser(c.Request().Context(), userID)
	if err != nil {
		return s.storeError(c, err, "Applications")
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return c.JSON(http.StatusOK, apps)
}

func (s *Server) handleTenderApplications(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	tenderID, err := pathUUID(c, "tenderId")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	t, err := s.Store.GetTender(ctx, tenderID)
	if err != nil {
		return s.storeError(c, err, "Tender")
	}
	if !canManage(*t, who) {
		return errorJSON(c, http.StatusForbidden, "Forbidden")
	}

	apps, err := s.Store.ListApplicationsByTender(ctx, tenderID)
	if err != nil {
		return s.storeError(c, err, "Applications")
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return c.JSON(http.StatusOK, apps)
}

type applicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=submitted under-review accepted rejected"`
}

// handleApplicationStatus lets the tender's publisher or an admin move a bid
// through review.
func (s *Server) handleApplicationStatus(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req applicationStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	a, err := s.Store.GetApplication(ctx, id)
	if err != nil {
		return s.storeError(c, err, "Application")
	}
	t, err := s.Store.GetTender(ctx, a.TenderID)
	if err != nil {
		return s.storeError(c, err, "Tender")
	}
	if !canManage(*t, who) {
		return errorJSON(c, http.StatusForbidden, "Forbidden")
	}

	a.Status = models.ApplicationStatus(req.Status)
	if err := s.Store.UpdateApplicationStatus(ctx, id, a.Status); err != nil {
		return s.storeError(c, err, "Application")
	}
	return c.JSON(http.StatusOK, a)
}
