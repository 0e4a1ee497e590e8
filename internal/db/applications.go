package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/david/tender-finder/internal/models"
)

const applicationCols = `a.id, a.user_id, a.tender_id, a.cover_letter, a.proposed_amount, a.duration_weeks,
	a.method_statement, a.compliance_declaration, a.documents, a.status, a.created_at, a.updated_at`

func scanApplication(scan func(dest ...interface{}) error, extra ...interface{}) (models.Application, error) {
	var a models.Application
	var documents []string
	var status string

	dest := []interface{}{
		&a.ID, &a.UserID, &a.TenderID, &a.CoverLetter, &a.ProposedAmount, &a.DurationWeeks,
		&a.MethodStatement, &a.ComplianceDeclaration, &documents, &status, &a.CreatedAt, &a.UpdatedAt,
	}
	if err := scan(append(dest, extra...)...); err != nil {
		return a, err
	}
	a.Documents = models.StringList(documents).Clean()
	a.Status = models.ApplicationStatus(status)
	return a, nil
}

// CreateApplication inserts a and fills in its id and timestamps.
func (s *Store) CreateApplication(ctx context.Context, a *models.Application) error {
	if a.Status == "" {
		a.Status = models.ApplicationSubmitted
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO applications (
			user_id, tender_id, cover_letter, proposed_amount, duration_weeks,
			method_statement, compliance_declaration, documents, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, a.UserID, a.TenderID, a.CoverLetter, a.ProposedAmount, a.DurationWeeks,
		a.MethodStatement, a.ComplianceDeclaration, []string(a.Documents.Clean()), string(a.Status),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+applicationCols+" FROM applications a WHERE a.id = $1", id)
	a, err := scanApplication(row.Scan)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// listApplicationsWithTender runs a query over applications joined with
// their tender and attaches the tender to each row.
func (s *Store) listApplicationsWithTender(ctx context.Context, where string, values ...any) ([]models.Application, error) {
	sql := fmt.Sprintf(`
		SELECT %s, %s
		FROM applications a
		JOIN tenders t ON t.id = a.tender_id
		%s
		ORDER BY a.created_at DESC
	`, applicationCols, prefixed("t.", tenderCols), where)

	rows, err := s.pool.Query(ctx, sql, values...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out := []models.Application{}
	for rows.Next() {
		var tr tenderRow
		app, err := scanApplication(rows.Scan, tr.dest()...)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		tender, err := tr.tender()
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		app.Tender = &tender
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return out, nil
}

// ListApplicationsByUser returns a vendor's applications, newest first.
func (s *Store) ListApplicationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Application, error) {
	return s.listApplicationsWithTender(ctx, "WHERE a.user_id = $1", userID)
}

// ListApplicationsByTender returns the bids on one tender, newest first.
func (s *Store) ListApplicationsByTender(ctx context.Context, tenderID uuid.UUID) ([]models.Application, error) {
	return s.listApplicationsWithTender(ctx, "WHERE a.tender_id = $1", tenderID)
}

// RecentApplicationTenders returns the tenders of a vendor's most recent
// applications, newest first.
func (s *Store) RecentApplicationTenders(ctx context.Context, userID uuid.UUID, limit int) ([]models.Tender, error) {
	return s.queryTenders(ctx, fmt.Sprintf(`
		SELECT %s
		FROM applications a
		JOIN tenders t ON t.id = a.tender_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2
	`, prefixed("t.", tenderCols)), userID, limit)
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	tag, err := s.pool.Exec(ctx, "UPDATE applications SET status = $2, updated_at = NOW() WHERE id = $1", id, string(status))
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
