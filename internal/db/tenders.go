package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/david/tender-finder/internal/models"
)

// TenderListParams filters the public tender list.
type TenderListParams struct {
	Search            string
	Category          string
	Sector            string
	MinBudget         float64
	MaxBudget         float64
	DeadlineBefore    *time.Time
	DeadlineAfter     *time.Time
	Tags              []string
	Professional      []string
	ExperienceYears   int // vendor's years; hides tenders that ask for more
	CompletedProjects int
	Status            string // "approved" (default) or "all"
	CreatedBy         *uuid.UUID
	SortBy            string
	Limit             int
	Offset            int
}

type TenderListResult struct {
	Tenders []models.Tender `json:"tenders"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

const tenderCols = `id, title, description, category, sector, location, budget_min, budget_max,
	deadline, requirements, required_docs, tags, professional_requirements,
	min_years_experience, min_completed_projects, specialised_notes, site_inspection_date,
	site_inspection_mandatory, contract_duration, cidb_grade, evaluation_criteria,
	created_by, status, created_at`

// tenderRow holds the scan targets of one tenders row.
type tenderRow struct {
	t            models.Tender
	requiredDocs []string
	tags         []string
	professional []string
	criteria     []byte
	status       string
}

func (r *tenderRow) dest() []interface{} {
	t := &r.t
	return []interface{}{
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Sector, &t.Location, &t.BudgetMin, &t.BudgetMax,
		&t.Deadline, &t.Requirements, &r.requiredDocs, &r.tags, &r.professional,
		&t.MinYearsExperience, &t.MinCompletedProjects, &t.SpecialisedNotes, &t.SiteInspectionDate,
		&t.SiteInspectionMandatory, &t.ContractDuration, &t.CIDBGrade, &r.criteria,
		&t.CreatedBy, &r.status, &t.CreatedAt,
	}
}

func (r *tenderRow) tender() (models.Tender, error) {
	t := r.t
	t.RequiredDocs = r.requiredDocs
	t.Tags = r.tags
	t.ProfessionalRequirements = r.professional
	t.Status = models.TenderStatus(r.status)
	if err := unmarshalJSON(r.criteria, &t.EvaluationCriteria); err != nil {
		return t, err
	}
	t.Normalize()
	return t, nil
}

func scanTender(scan func(dest ...interface{}) error) (models.Tender, error) {
	var r tenderRow
	if err := scan(r.dest()...); err != nil {
		return models.Tender{}, err
	}
	return r.tender()
}

// buildTenderWhere renders the filter part of a tender list query.
func buildTenderWhere(params TenderListParams, a *args) string {
	where := "WHERE 1=1"

	switch params.Status {
	case "all":
	case "":
		where += " AND status = 'approved'"
	default:
		where += " AND status = " + a.add(params.Status)
	}

	if params.CreatedBy != nil {
		where += " AND created_by = " + a.add(*params.CreatedBy)
	}
	if q := strings.TrimSpace(params.Search); q != "" {
		p := a.add(q)
		where += fmt.Sprintf(" AND (search_vector @@ plainto_tsquery('english', %s) OR title ILIKE '%%' || %s || '%%')", p, p)
	}
	if params.Category != "" {
		where += " AND category = " + a.add(params.Category)
	}
	if params.Sector != "" {
		where += " AND sector = " + a.add(params.Sector)
	}
	if params.MinBudget > 0 {
		where += " AND COALESCE(budget_max, budget_min) >= " + a.add(params.MinBudget)
	}
	if params.MaxBudget > 0 {
		where += " AND COALESCE(budget_min, budget_max) <= " + a.add(params.MaxBudget)
	}
	if params.DeadlineBefore != nil {
		where += " AND deadline <= " + a.add(*params.DeadlineBefore)
	}
	if params.DeadlineAfter != nil {
		where += " AND deadline >= " + a.add(*params.DeadlineAfter)
	}
	if tags := sanitizeStringSlice(params.Tags); len(tags) > 0 {
		where += " AND tags @> " + a.add(tags)
	}
	if prof := sanitizeStringSlice(params.Professional); len(prof) > 0 {
		where += " AND professional_requirements @> " + a.add(prof)
	}
	if params.ExperienceYears > 0 {
		where += " AND COALESCE(min_years_experience, 0) <= " + a.add(params.ExperienceYears)
	}
	if params.CompletedProjects > 0 {
		where += " AND COALESCE(min_completed_projects, 0) <= " + a.add(params.CompletedProjects)
	}

	return where
}

// tenderOrderBy maps a sort key onto an ORDER BY clause; unknown keys sort
// newest first.
func tenderOrderBy(sortBy string) string {
	switch sortBy {
	case "deadline-asc":
		return " ORDER BY deadline ASC NULLS LAST, created_at DESC"
	case "deadline-desc":
		return " ORDER BY deadline DESC NULLS LAST, created_at DESC"
	case "budget-asc":
		return " ORDER BY COALESCE(budget_min, budget_max) ASC NULLS LAST, created_at DESC"
	case "budget-desc":
		return " ORDER BY COALESCE(budget_max, budget_min) DESC NULLS LAST, created_at DESC"
	default:
		return " ORDER BY created_at DESC"
	}
}

func (s *Store) queryTenders(ctx context.Context, sql string, values ...any) ([]models.Tender, error) {
	rows, err := s.pool.Query(ctx, sql, values...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out := []models.Tender{}
	for rows.Next() {
		t, err := scanTender(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return out, nil
}

// ListTenders returns one page of tenders matching params.
func (s *Store) ListTenders(ctx context.Context, params TenderListParams) (*TenderListResult, error) {
	var a args
	where := buildTenderWhere(params, &a)

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tenders "+where, a.values...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}

	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	sql := fmt.Sprintf("SELECT %s FROM tenders %s%s", tenderCols, where, tenderOrderBy(params.SortBy))
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", a.add(params.Limit), a.add(params.Offset))

	tenders, err := s.queryTenders(ctx, sql, a.values...)
	if err != nil {
		return nil, err
	}
	return &TenderListResult{Tenders: tenders, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

// ListManagedTenders returns every tender, or only those created by owner
// when owner is set, newest first.
func (s *Store) ListManagedTenders(ctx context.Context, owner *uuid.UUID) ([]models.Tender, error) {
	var a args
	where := buildTenderWhere(TenderListParams{Status: "all", CreatedBy: owner}, &a)
	return s.queryTenders(ctx, fmt.Sprintf("SELECT %s FROM tenders %s%s", tenderCols, where, tenderOrderBy("newest")), a.values...)
}

func (s *Store) GetTender(ctx context.Context, id uuid.UUID) (*models.Tender, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+tenderCols+" FROM tenders WHERE id = $1", id)
	t, err := scanTender(row.Scan)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func tenderValues(t *models.Tender) ([]any, error) {
	t.Normalize()
	criteria, err := marshalJSON(t.EvaluationCriteria)
	if err != nil {
		return nil, err
	}
	return []any{
		t.Title, t.Description, t.Category, t.Sector, t.Location, t.BudgetMin, t.BudgetMax,
		t.Deadline, t.Requirements, []string(t.RequiredDocs), []string(t.Tags), []string(t.ProfessionalRequirements),
		t.MinYearsExperience, t.MinCompletedProjects, t.SpecialisedNotes, t.SiteInspectionDate,
		t.SiteInspectionMandatory, t.ContractDuration, t.CIDBGrade, criteria, string(t.Status),
	}, nil
}

// CreateTender inserts t and fills in its id and creation time.
func (s *Store) CreateTender(ctx context.Context, t *models.Tender) error {
	values, err := tenderValues(t)
	if err != nil {
		return err
	}
	values = append(values, t.CreatedBy)

	err = s.pool.QueryRow(ctx, `
		INSERT INTO tenders (
			title, description, category, sector, location, budget_min, budget_max,
			deadline, requirements, required_docs, tags, professional_requirements,
			min_years_experience, min_completed_projects, specialised_notes, site_inspection_date,
			site_inspection_mandatory, contract_duration, cidb_grade, evaluation_criteria, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, created_at
	`, values...).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tender: %w", err)
	}
	return nil
}

// UpdateTender overwrites the editable fields of t, including status.
func (s *Store) UpdateTender(ctx context.Context, t *models.Tender) error {
	values, err := tenderValues(t)
	if err != nil {
		return err
	}
	values = append(values, t.ID)

	tag, err := s.pool.Exec(ctx, `
		UPDATE tenders SET
			title = $1, description = $2, category = $3, sector = $4, location = $5,
			budget_min = $6, budget_max = $7, deadline = $8, requirements = $9,
			required_docs = $10, tags = $11, professional_requirements = $12,
			min_years_experience = $13, min_completed_projects = $14, specialised_notes = $15,
			site_inspection_date = $16, site_inspection_mandatory = $17, contract_duration = $18,
			cidb_grade = $19, evaluation_criteria = $20, status = $21
		WHERE id = $22
	`, values...)
	if err != nil {
		return fmt.Errorf("update tender: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateTenderStatus(ctx context.Context, id uuid.UUID, status models.TenderStatus) error {
	tag, err := s.pool.Exec(ctx, "UPDATE tenders SET status = $2 WHERE id = $1", id, string(status))
	if err != nil {
		return fmt.Errorf("update tender status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTender(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM tenders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete tender: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SuggestionPool returns approved tenders whose category or sector is in the
// given sets, soonest deadline first. Empty sets match every tender.
func (s *Store) SuggestionPool(ctx context.Context, categories, sectors []string, limit int) ([]models.Tender, error) {
	var a args
	sql := "SELECT " + tenderCols + " FROM tenders WHERE status = 'approved'"
	if len(categories) > 0 || len(sectors) > 0 {
		sql += fmt.Sprintf(" AND (category = ANY(%s) OR sector = ANY(%s))", a.add(categories), a.add(sectors))
	}
	sql += " ORDER BY deadline ASC NULLS LAST LIMIT " + a.add(limit)
	return s.queryTenders(ctx, sql, a.values...)
}

// UpcomingTenders returns approved tenders by ascending deadline.
func (s *Store) UpcomingTenders(ctx context.Context, limit int) ([]models.Tender, error) {
	return s.queryTenders(ctx,
		"SELECT "+tenderCols+" FROM tenders WHERE status = 'approved' ORDER BY deadline ASC NULLS LAST LIMIT $1", limit)
}

// TenderExistsByTitle is used by the seeder to skip tenders already loaded.
func (s *Store) TenderExistsByTitle(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM tenders WHERE title = $1)", title).Scan(&exists)
	return exists, err
}
