package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/david/tender-finder/internal/auth"
	"github.com/david/tender-finder/internal/db"
	"github.com/david/tender-finder/internal/extract"
	"github.com/david/tender-finder/internal/models"
)

// vendorInput is the editable part of a profile. Absent fields keep their
// stored value.
type vendorInput struct {
	CompanyName               *string                           `json:"companyName" validate:"omitempty,max=200"`
	TradingName               *string                           `json:"tradingName" validate:"omitempty,max=200"`
	RegistrationNumber        *string                           `json:"registrationNumber" validate:"omitempty,max=100"`
	VATNumber                 *string                           `json:"vatNumber" validate:"omitempty,max=100"`
	CSDNumber                 *string                           `json:"csdNumber" validate:"omitempty,max=100"`
	BBBEELevel                *string                           `json:"bbbeeLevel" validate:"omitempty,max=50"`
	Phone                     *string                           `json:"phone" validate:"omitempty,max=50"`
	Address                   *models.Address                   `json:"address"`
	Directors                 *models.List[models.Director]     `json:"directors" validate:"omitempty,max=50"`
	ProfessionalRegistrations *models.List[models.Registration] `json:"professionalRegistrations" validate:"omitempty,max=50"`
	YearsExperience           *models.Quantity                  `json:"yearsExperience"`
	CompletedProjects         *models.Quantity                  `json:"completedProjects"`
	CoreCapabilities          *models.StringList                `json:"coreCapabilities" validate:"omitempty,max=100"`
	IndustriesServed          *models.StringList                `json:"industriesServed" validate:"omitempty,max=100"`
}

func (in vendorInput) applyTo(p *models.VendorProfile) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setString(&p.CompanyName, in.CompanyName)
	setString(&p.TradingName, in.TradingName)
	setString(&p.RegistrationNumber, in.RegistrationNumber)
	setString(&p.VATNumber, in.VATNumber)
	setString(&p.CSDNumber, in.CSDNumber)
	setString(&p.BBBEELevel, in.BBBEELevel)
	setString(&p.Phone, in.Phone)

	if in.Address != nil {
		p.Address = models.Address{
			Street:     strings.TrimSpace(in.Address.Street),
			City:       strings.TrimSpace(in.Address.City),
			PostalCode: strings.TrimSpace(in.Address.PostalCode),
		}
	}
	if in.Directors != nil {
		p.Directors = *in.Directors
	}
	if in.ProfessionalRegistrations != nil {
		p.ProfessionalRegistrations = *in.ProfessionalRegistrations
	}
	if in.YearsExperience != nil {
		p.YearsExperience = *in.YearsExperience
	}
	if in.CompletedProjects != nil {
		p.CompletedProjects = *in.CompletedProjects
	}
	if in.CoreCapabilities != nil {
		p.CoreCapabilities = *in.CoreCapabilities
	}
	if in.IndustriesServed != nil {
		p.IndustriesServed = *in.IndustriesServed
	}
}

// evaluateAndSave normalises, evaluates and persists p.
func (s *Server) evaluateAndSave(c echo.Context, p *models.VendorProfile) error {
	p.Normalize()
	ev := s.Evaluator.Apply(p, s.now())
	if err := s.Store.SaveVendor(c.Request().Context(), p); err != nil {
		return err
	}
	if ev.StatusChanged {
		s.log.Info("vendor profile promoted", zap.String("vendor_id", p.ID.String()), zap.String("status", string(ev.Status)))
	}
	return nil
}

// markEdited sends a verified profile back for review when its owner edits it.
func markEdited(p *models.VendorProfile, who auth.Identity) {
	if !who.IsAdmin() && p.Status == models.ProfileVerified {
		p.Status = models.ProfilePending
	}
}

// loadOwnedVendor fetches the profile at :id and checks the caller may act on it.
func (s *Server) loadOwnedVendor(c echo.Context, who auth.Identity) (*models.VendorProfile, error) {
	id, err := pathUUID(c, "id")
	if err != nil {
		return nil, err
	}
	p, err := s.Store.GetVendor(c.Request().Context(), id)
	if err != nil {
		return nil, s.storeError(c, err, "Vendor profile")
	}
	if p.UserID != who.UserID && !who.IsAdmin() {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	}
	return p, nil
}

func (s *Server) handleGetMyVendor(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	p, err := s.Store.GetVendorByUser(c.Request().Context(), who.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusOK, nil)
	}
	if err != nil {
		return s.storeError(c, err, "Vendor profile")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpsertVendor(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	var in vendorInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}

	ctx := c.Request().Context()
	p, err := s.Store.GetVendorByUser(ctx, who.UserID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		p = &models.VendorProfile{UserID: who.UserID, Status: models.ProfileIncomplete}
	case err != nil:
		return s.storeError(c, err, "Vendor profile")
	default:
		markEdited(p, who)
	}

	in.applyTo(p)
	if err := s.evaluateAndSave(c, p); err != nil {
		return s.storeError(c, err, "Vendor profile")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleUploadDocument(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	p, err := s.loadOwnedVendor(c, who)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "No file uploaded")
	}
	expiry, ok := parseDate(strings.TrimSpace(c.FormValue("expiryDate")))
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid expiryDate")
	}
	docType := strings.TrimSpace(c.FormValue("type"))
	if docType == "" {
		docType = "other"
	}

	src, err := fh.Open()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Unreadable upload")
	}
	defer src.Close()
	content, err := io.ReadAll(io.LimitReader(src, s.maxUploadBytes+1))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Unreadable upload")
	}
	if int64(len(content)) > s.maxUploadBytes {
		return errorJSON(c, http.StatusRequestEntityTooLarge, "File too large")
	}

	mime := mimetype.Detect(content)
	ext := strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))
	if ext == "" {
		ext = mime.Extension()
	}
	filename := uuid.NewString() + ext

	dir := filepath.Join(s.uploadDir, p.ID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error("failed to create upload dir", zap.String("dir", dir), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Internal Server Error")
	}
	if err := os.WriteFile(filepath.Join(dir, filename), content, 0o644); err != nil {
		s.log.Error("failed to store upload", zap.String("dir", dir), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Internal Server Error")
	}

	if mime.Is("application/pdf") || extract.IsPDF(content) {
		fields, err := extract.FromPDF(content)
		switch {
		case err != nil:
			s.log.Warn("document auto-extraction failed", zap.String("vendor_id", p.ID.String()), zap.String("filename", filename), zap.Error(err))
		case !fields.Empty():
			fields.Apply(p)
			s.log.Info("document fields extracted", zap.String("vendor_id", p.ID.String()), zap.String("type", docType))
		}
	}

	doc := models.Document{
		Type:       docType,
		URL:        "/api/v1/vendors/" + p.ID.String() + "/documents/" + filename + "/download",
		Filename:   filename,
		MimeType:   mime.String(),
		Size:       int64(len(content)),
		UploadedAt: s.now().UTC(),
		ExpiryDate: expiry,
	}
	var replaced string
	for _, d := range p.Documents {
		if d.Type == docType {
			replaced = d.Filename
		}
	}
	p.UpsertDocument(doc)
	markEdited(p, who)

	if err := s.evaluateAndSave(c, p); err != nil {
		return s.storeError(c, err, "Vendor profile")
	}
	if replaced != "" {
		if err := os.Remove(filepath.Join(dir, filepath.Base(replaced))); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove replaced document", zap.String("filename", replaced), zap.Error(err))
		}
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"document": doc, "profile": p})
}

func (s *Server) handleDownloadDocument(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	p, err := s.loadOwnedVendor(c, who)
	if err != nil {
		return err
	}

	filename := c.Param("filename")
	if filename == "" || filepath.Base(filename) != filename {
		return errorJSON(c, http.StatusBadRequest, "Invalid filename")
	}
	doc, ok := p.FindDocument(filename)
	if !ok {
		return errorJSON(c, http.StatusNotFound, "Document not found")
	}
	path := filepath.Join(s.uploadDir, p.ID.String(), doc.Filename)
	if _, err := os.Stat(path); err != nil {
		return errorJSON(c, http.StatusNotFound, "File not found on disk")
	}
	return c.Attachment(path, doc.Filename)
}

func (s *Server) handleListVendors(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" && !models.ValidProfileStatus(status) {
		return errorJSON(c, http.StatusBadRequest, "Invalid status")
	}
	profiles, err := s.Store.ListVendors(c.Request().Context(), status)
	if err != nil {
		return s.storeError(c, err, "Vendor profiles")
	}
	if profiles == nil {
		profiles = []models.VendorProfile{}
	}
	return c.JSON(http.StatusOK, profiles)
}

func (s *Server) handleGetVendor(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	p, err := s.Store.GetVendor(c.Request().Context(), id)
	if err != nil {
		return s.storeError(c, err, "Vendor profile")
	}
	return c.JSON(http.StatusOK, p)
}

type vendorStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=incomplete draft pending verified rejected"`
	Note   string `json:"note" validate:"max=2000"`
}

func (s *Server) handleVendorStatus(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req vendorStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := s.Store.GetVendor(c.Request().Context(), id)
	if err != nil {
		return s.storeError(c, err, "Vendor profile")
	}

	now := s.now().UTC()
	p.Status = models.ProfileStatus(req.Status)
	if note := strings.TrimSpace(req.Note); note != "" {
		p.Notes = append(p.Notes, models.Note{By: who.UserID, Text: note, CreatedAt: now})
	}
	reviewer := who.UserID
	p.Review = models.Review{LastReviewer: &reviewer, LastReviewedAt: &now}

	if err := s.evaluateAndSave(c, p); err != nil {
		return s.storeError(c, err, "Vendor profile")
	}
	s.log.Info("vendor status changed", zap.String("vendor_id", p.ID.String()), zap.String("status", string(p.Status)), zap.String("reviewer", who.UserID.String()))
	return c.JSON(http.StatusOK, p)
}
