package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/david/tender-finder/internal/models"
)

const vendorCols = `id, user_id, company_name, trading_name, registration_number, vat_number,
	csd_number, bbbee_level, phone, address, directors, documents, professional_registrations,
	years_experience, completed_projects, core_capabilities, industries_served, status,
	metrics, auto_extracted, review, notes, created_at, updated_at`

func scanVendor(scan func(dest ...interface{}) error) (models.VendorProfile, error) {
	var p models.VendorProfile
	var address, directors, documents, registrations, metrics, extracted, review, notes []byte
	var years, projects *string
	var capabilities, industries []string
	var status string

	err := scan(
		&p.ID, &p.UserID, &p.CompanyName, &p.TradingName, &p.RegistrationNumber, &p.VATNumber,
		&p.CSDNumber, &p.BBBEELevel, &p.Phone, &address, &directors, &documents, &registrations,
		&years, &projects, &capabilities, &industries, &status,
		&metrics, &extracted, &review, &notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{address, &p.Address},
		{directors, &p.Directors},
		{documents, &p.Documents},
		{registrations, &p.ProfessionalRegistrations},
		{metrics, &p.Metrics},
		{extracted, &p.AutoExtracted},
		{review, &p.Review},
		{notes, &p.Notes},
	} {
		if err := unmarshalJSON(col.raw, col.dst); err != nil {
			return p, err
		}
	}

	if years != nil {
		p.YearsExperience = models.Quantity{Raw: *years, Set: true}
	}
	if projects != nil {
		p.CompletedProjects = models.Quantity{Raw: *projects, Set: true}
	}
	p.CoreCapabilities = capabilities
	p.IndustriesServed = industries
	p.Status = models.ProfileStatus(status)
	p.Normalize()

	return p, nil
}

func quantityArg(q models.Quantity) *string {
	if !q.Set {
		return nil
	}
	raw := q.Raw
	return &raw
}

// GetVendor returns the profile with the given id.
func (s *Store) GetVendor(ctx context.Context, id uuid.UUID) (*models.VendorProfile, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+vendorCols+" FROM vendor_profiles WHERE id = $1", id)
	p, err := scanVendor(row.Scan)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetVendorByUser returns the profile owned by userID.
func (s *Store) GetVendorByUser(ctx context.Context, userID uuid.UUID) (*models.VendorProfile, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+vendorCols+" FROM vendor_profiles WHERE user_id = $1", userID)
	p, err := scanVendor(row.Scan)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListVendors returns profiles, newest first, optionally filtered by status.
func (s *Store) ListVendors(ctx context.Context, status string) ([]models.VendorProfile, error) {
	var a args
	sql := "SELECT " + vendorCols + " FROM vendor_profiles"
	if status != "" {
		sql += " WHERE status = " + a.add(status)
	}
	sql += " ORDER BY updated_at DESC"

	rows, err := s.pool.Query(ctx, sql, a.values...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out := []models.VendorProfile{}
	for rows.Next() {
		p, err := scanVendor(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return out, nil
}

// SaveVendor inserts or updates the profile keyed by its user and fills in
// the stored id and timestamps.
func (s *Store) SaveVendor(ctx context.Context, p *models.VendorProfile) error {
	p.Normalize()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	jsonCols := make([][]byte, 0, 8)
	for _, v := range []any{p.Address, p.Directors, p.Documents, p.ProfessionalRegistrations, p.Metrics, p.AutoExtracted, p.Review, p.Notes} {
		b, err := marshalJSON(v)
		if err != nil {
			return err
		}
		jsonCols = append(jsonCols, b)
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO vendor_profiles (
			id, user_id, company_name, trading_name, registration_number, vat_number,
			csd_number, bbbee_level, phone, address, directors, documents, professional_registrations,
			years_experience, completed_projects, core_capabilities, industries_served, status,
			metrics, auto_extracted, review, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (user_id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			trading_name = EXCLUDED.trading_name,
			registration_number = EXCLUDED.registration_number,
			vat_number = EXCLUDED.vat_number,
			csd_number = EXCLUDED.csd_number,
			bbbee_level = EXCLUDED.bbbee_level,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			directors = EXCLUDED.directors,
			documents = EXCLUDED.documents,
			professional_registrations = EXCLUDED.professional_registrations,
			years_experience = EXCLUDED.years_experience,
			completed_projects = EXCLUDED.completed_projects,
			core_capabilities = EXCLUDED.core_capabilities,
			industries_served = EXCLUDED.industries_served,
			status = EXCLUDED.status,
			metrics = EXCLUDED.metrics,
			auto_extracted = EXCLUDED.auto_extracted,
			review = EXCLUDED.review,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`,
		p.ID, p.UserID, p.CompanyName, p.TradingName, p.RegistrationNumber, p.VATNumber,
		p.CSDNumber, p.BBBEELevel, p.Phone, jsonCols[0], jsonCols[1], jsonCols[2], jsonCols[3],
		quantityArg(p.YearsExperience), quantityArg(p.CompletedProjects),
		[]string(p.CoreCapabilities), []string(p.IndustriesServed), string(p.Status),
		jsonCols[4], jsonCols[5], jsonCols[6], jsonCols[7],
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save vendor: %w", err)
	}
	return nil
}

// UpdateVendorEvaluation persists only the evaluator-owned fields.
func (s *Store) UpdateVendorEvaluation(ctx context.Context, id uuid.UUID, metrics models.ProfileMetrics, status models.ProfileStatus) error {
	raw, err := marshalJSON(metrics)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE vendor_profiles SET metrics = $2, status = $3, updated_at = $4 WHERE id = $1
	`, id, raw, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
