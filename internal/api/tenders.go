package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/david/tender-finder/internal/auth"
	"github.com/david/tender-finder/internal/db"
	"github.com/david/tender-finder/internal/models"
	"github.com/david/tender-finder/internal/qualify"
	"github.com/david/tender-finder/internal/sanitize"
	"github.com/david/tender-finder/internal/suggest"
)

const historySize = 25

type tenderInput struct {
	Title                    string                                  `json:"title" validate:"required,notblank,max=300"`
	Description              string                                  `json:"description" validate:"max=50000"`
	Category                 string                                  `json:"category" validate:"max=200"`
	Sector                   string                                  `json:"sector" validate:"max=200"`
	Location                 string                                  `json:"location" validate:"max=200"`
	BudgetMin                *float64                                `json:"budgetMin" validate:"omitempty,gte=0"`
	BudgetMax                *float64                                `json:"budgetMax" validate:"omitempty,gte=0"`
	Deadline                 string                                  `json:"deadline"`
	Requirements             string                                  `json:"requirements" validate:"max=50000"`
	RequiredDocs             models.StringList                       `json:"requiredDocs" validate:"max=50"`
	Tags                     models.StringList                       `json:"tags" validate:"max=50"`
	ProfessionalRequirements models.StringList                       `json:"professionalRequirements" validate:"max=50"`
	MinYearsExperience       *int                                    `json:"minYearsExperience" validate:"omitempty,gte=0"`
	MinCompletedProjects     *int                                    `json:"minCompletedProjects" validate:"omitempty,gte=0"`
	SpecialisedNotes         string                                  `json:"specialisedNotes" validate:"max=50000"`
	SiteInspectionDate       string                                  `json:"siteInspectionDate"`
	SiteInspectionMandatory  bool                                    `json:"siteInspectionMandatory"`
	ContractDuration         string                                  `json:"contractDuration" validate:"max=200"`
	CIDBGrade                string                                  `json:"cidbGrade" validate:"max=20"`
	EvaluationCriteria       models.List[models.EvaluationCriterion] `json:"evaluationCriteria" validate:"max=20"`
}

// applyTo copies the sanitised input onto t. Markup is stripped from the
// title, restricted in the long-form fields and flattened to lines in the
// requirements block so clause splitting sees plain text.
func (in tenderInput) applyTo(t *models.Tender) error {
	if in.BudgetMin != nil && in.BudgetMax != nil && *in.BudgetMax < *in.BudgetMin {
		return echo.NewHTTPError(http.StatusBadRequest, "budgetMax must not be below budgetMin")
	}
	deadline, ok := parseDate(strings.TrimSpace(in.Deadline))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid deadline")
	}
	inspection, ok := parseDate(strings.TrimSpace(in.SiteInspectionDate))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid siteInspectionDate")
	}

	t.Title = sanitize.Plain(in.Title)
	t.Description = sanitize.TenderHTML(in.Description)
	t.Category = strings.TrimSpace(in.Category)
	t.Sector = strings.TrimSpace(in.Sector)
	t.Location = strings.TrimSpace(in.Location)
	t.BudgetMin = in.BudgetMin
	t.BudgetMax = in.BudgetMax
	t.Deadline = deadline
	t.Requirements = sanitize.HTMLToText(in.Requirements)
	t.RequiredDocs = in.RequiredDocs
	t.Tags = in.Tags
	t.ProfessionalRequirements = in.ProfessionalRequirements
	t.MinYearsExperience = in.MinYearsExperience
	t.MinCompletedProjects = in.MinCompletedProjects
	t.SpecialisedNotes = sanitize.TenderHTML(in.SpecialisedNotes)
	t.SiteInspectionDate = inspection
	t.SiteInspectionMandatory = in.SiteInspectionMandatory
	t.ContractDuration = strings.TrimSpace(in.ContractDuration)
	t.CIDBGrade = strings.ToUpper(strings.TrimSpace(in.CIDBGrade))
	t.EvaluationCriteria = in.EvaluationCriteria
	t.Normalize()
	if t.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request: title: notblank")
	}
	return nil
}

// canManage reports whether who may edit or delete t.
func canManage(t models.Tender, who auth.Identity) bool {
	return who.IsAdmin() || t.OwnedBy(who.UserID)
}

// visible hides unapproved tenders from everyone but their owner and admins.
func visible(t models.Tender, who auth.Identity, authed bool) bool {
	if t.Status == models.TenderApproved {
		return true
	}
	return authed && canManage(t, who)
}

func queryFloat(c echo.Context, name string) (float64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return f, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return n, nil
}

func tenderListParams(c echo.Context) (db.TenderListParams, error) {
	params := db.TenderListParams{
		Search:       c.QueryParam("search"),
		Category:     strings.TrimSpace(c.QueryParam("category")),
		Sector:       strings.TrimSpace(c.QueryParam("sector")),
		Tags:         splitCSV(c.QueryParam("tags")),
		Professional: splitCSV(c.QueryParam("professional")),
		SortBy:       c.QueryParam("sort"),
	}
	if params.SortBy == "" {
		params.SortBy = c.QueryParam("sortBy")
	}

	var err error
	if params.MinBudget, err = queryFloat(c, "minBudget"); err != nil {
		return params, err
	}
	if params.MaxBudget, err = queryFloat(c, "maxBudget"); err != nil {
		return params, err
	}
	if params.ExperienceYears, err = queryInt(c, "experienceYears"); err != nil {
		return params, err
	}
	if params.CompletedProjects, err = queryInt(c, "completedProjects"); err != nil {
		return params, err
	}
	if params.Limit, err = queryInt(c, "limit"); err != nil {
		return params, err
	}
	if params.Offset, err = queryInt(c, "offset"); err != nil {
		return params, err
	}

	var ok bool
	if params.DeadlineBefore, ok = parseDate(c.QueryParam("deadlineBefore")); !ok {
		return params, echo.NewHTTPError(http.StatusBadRequest, "Invalid deadlineBefore")
	}
	if params.DeadlineAfter, ok = parseDate(c.QueryParam("deadlineAfter")); !ok {
		return params, echo.NewHTTPError(http.StatusBadRequest, "Invalid deadlineAfter")
	}
	return params, nil
}

func (s *Server) handleListTenders(c echo.Context) error {
	params, err := tenderListParams(c)
	if err != nil {
		return err
	}
	result, err := s.Store.ListTenders(c.Request().Context(), params)
	if err != nil {
		return s.storeError(c, err, "Tenders")
	}
	if result.Tenders == nil {
		result.Tenders = []models.Tender{}
	}
	return c.JSON(http.StatusOK, result)
}

// loadTender fetches the tender at :id, hiding ones the caller may not see.
func (s *Server) loadTender(c echo.Context) (*models.Tender, auth.Identity, bool, error) {
	id, err := pathUUID(c, "id")
	if err != nil {
		return nil, auth.Identity{}, false, err
	}
	who, authed := auth.IdentityFrom(c)
	t, err := s.Store.GetTender(c.Request().Context(), id)
	if err != nil {
		return nil, who, authed, s.storeError(c, err, "Tender")
	}
	if !visible(*t, who, authed) {
		return nil, who, authed, echo.NewHTTPError(http.StatusNotFound, "Tender not found")
	}
	return t, who, authed, nil
}

func (s *Server) handleGetTender(c echo.Context) error {
	t, _, _, err := s.loadTender(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// handleQualification checks the caller's vendor profile against the tender.
// Anonymous callers and users without a profile get every entry unverified.
func (s *Server) handleQualification(c echo.Context) error {
	t, who, authed, err := s.loadTender(c)
	if err != nil {
		return err
	}

	var profile *models.VendorProfile
	if authed {
		p, err := s.Store.GetVendorByUser(c.Request().Context(), who.UserID)
		switch {
		case errors.Is(err, db.ErrNotFound):
		case err != nil:
			return s.storeError(c, err, "Vendor profile")
		default:
			p.Normalize()
			profile = p
		}
	}

	return c.JSON(http.StatusOK, qualify.Match(*t, profile))
}

func (s *Server) handleSuggestions(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	history, err := s.Store.RecentApplicationTenders(ctx, who.UserID, historySize)
	if err != nil {
		return s.storeError(c, err, "Applications")
	}

	var owned []string
	p, err := s.Store.GetVendorByUser(ctx, who.UserID)
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		return s.storeError(c, err, "Vendor profile")
	default:
		owned = p.DocumentTypes()
	}

	tenders, err := suggest.Suggest(ctx, s.Store, history, owned)
	if err != nil {
		return s.storeError(c, err, "Tenders")
	}
	if tenders == nil {
		tenders = []models.Tender{}
	}
	return c.JSON(http.StatusOK, tenders)
}

func (s *Server) handleManageTenders(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	var owner *uuid.UUID
	if !who.IsAdmin() {
		owner = &who.UserID
	}
	tenders, err := s.Store.ListManagedTenders(c.Request().Context(), owner)
	if err != nil {
		return s.storeError(c, err, "Tenders")
	}
	if tenders == nil {
		tenders = []models.Tender{}
	}
	return c.JSON(http.StatusOK, tenders)
}

func (s *Server) handleCreateTender(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	var in tenderInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}

	t := &models.Tender{Status: models.TenderPending, CreatedAt: s.now().UTC()}
	if err := in.applyTo(t); err != nil {
		return err
	}
	if who.IsAdmin() {
		t.Status = models.TenderApproved
	}
	creator := who.UserID
	t.CreatedBy = &creator

	if err := s.Store.CreateTender(c.Request().Context(), t); err != nil {
		return s.storeError(c, err, "Tender")
	}
	s.log.Info("tender created", zap.String("tender_id", t.ID.String()), zap.String("status", string(t.Status)), zap.String("created_by", creator.String()))
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) handleUpdateTender(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var in tenderInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}

	ctx := c.Request().Context()
	t, err := s.Store.GetTender(ctx, id)
	if err != nil {
		return s.storeError(c, err, "Tender")
	}
	if !canManage(*t, who) {
		return errorJSON(c, http.StatusForbidden, "Forbidden")
	}
	if err := in.applyTo(t); err != nil {
		return err
	}
	if err := s.Store.UpdateTender(ctx, t); err != nil {
		return s.storeError(c, err, "Tender")
	}
	return c.JSON(http.StatusOK, t)
}

type tenderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected closed"`
}

func (s *Server) handleTenderStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req tenderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := s.Store.UpdateTenderStatus(ctx, id, models.TenderStatus(req.Status)); err != nil {
		return s.storeError(c, err, "Tender")
	}
	t, err := s.Store.GetTender(ctx, id)
	if err != nil {
		return s.storeError(c, err, "Tender")
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTender(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	t, err := s.Store.GetTender(ctx, id)
	if err != nil {
		return s.storeError(c, err, "Tender")
	}
	if !canManage(*t, who) {
		return errorJSON(c, http.StatusForbidden, "Forbidden")
	}
	if err := s.Store.DeleteTender(ctx, id); err != nil {
		return s.storeError(c, err, "Tender")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Tender deleted"})
}
