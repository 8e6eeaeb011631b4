// Package pgstore implements records.Reader on PostgreSQL.
package pgstore

import (
	"context"
	"fmt"
	"strings"

	"fieldservice_backend/internal/records"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ records.Reader = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const jobColumns = `
	j.id, j.job_number, j.status, j.type, j.priority, j.created_at, j.updated_at,
	j.appointment_at, j.contact_name, j.contact_phone, j.contact_email, j.location_id,
	ARRAY(
		SELECT jt.technician_id FROM job_technicians jt
		WHERE jt.job_id = j.id
		ORDER BY jt.position, jt.technician_id
	) AS technician_ids`

// FindJobs pushes the whole match stage into SQL.
func (s *Store) FindJobs(ctx context.Context, q records.JobQuery) ([]records.Job, error) {
	if q.LocationIDs != nil && len(q.LocationIDs) == 0 {
		return []records.Job{}, nil
	}

	where, args := buildJobWhere(q)
	query := `SELECT ` + jobColumns + ` FROM jobs j`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY j.created_at DESC, j.id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]records.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}
	return jobs, nil
}

func buildJobWhere(q records.JobQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if q.Window != nil {
		add("j.created_at >= $%d", q.Window.From)
		add("j.created_at <= $%d", q.Window.To)
	}
	if q.JobID != nil {
		add("j.id = $%d", *q.JobID)
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			statuses[i] = string(st)
		}
		add("j.status = ANY($%d)", statuses)
	}
	if len(q.Types) > 0 {
		add("j.type = ANY($%d)", q.Types)
	}
	if len(q.Priorities) > 0 {
		add("j.priority = ANY($%d)", q.Priorities)
	}
	if q.TechnicianID != nil {
		add("EXISTS (SELECT 1 FROM job_technicians jt WHERE jt.job_id = j.id AND jt.technician_id = $%d)", *q.TechnicianID)
	}
	if len(q.LocationIDs) > 0 {
		add("j.location_id = ANY($%d)", q.LocationIDs)
	}

	return strings.Join(clauses, " AND "), args
}

func scanJob(row pgx.Row) (records.Job, error) {
	var (
		job    records.Job
		status string
	)
	err := row.Scan(
		&job.ID,
		&job.JobNumber,
		&status,
		&job.Type,
		&job.Priority,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.AppointmentAt,
		&job.ContactName,
		&job.ContactPhone,
		&job.ContactEmail,
		&job.LocationID,
		&job.TechnicianIDs,
	)
	job.Status = records.Status(status)
	return job, err
}

func (s *Store) LocationsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]records.JobLocation, error) {
	out := make(map[uuid.UUID]records.JobLocation, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, address, province, district, sub_district, postal_code, coordinates, customer_id
		FROM job_locations
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("locations by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out[loc.ID] = loc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("locations by id: %w", err)
	}
	return out, nil
}

func (s *Store) LocationsByCustomer(ctx context.Context, customerID uuid.UUID) ([]records.JobLocation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, address, province, district, sub_district, postal_code, coordinates, customer_id
		FROM job_locations
		WHERE customer_id = $1
		ORDER BY id
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("locations by customer: %w", err)
	}
	defer rows.Close()

	out := make([]records.JobLocation, 0)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("locations by customer: %w", err)
	}
	return out, nil
}

func scanLocation(row pgx.Row) (records.JobLocation, error) {
	var loc records.JobLocation
	err := row.Scan(
		&loc.ID,
		&loc.Name,
		&loc.Address,
		&loc.Province,
		&loc.District,
		&loc.SubDistrict,
		&loc.PostalCode,
		&loc.Coordinates,
		&loc.CustomerID,
	)
	return loc, err
}

func (s *Store) CustomersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]records.Customer, error) {
	out := make(map[uuid.UUID]records.Customer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT id, name, phone, email FROM customers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("customers by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c records.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("customers by id: %w", err)
	}
	return out, nil
}

// SearchCustomers runs the page query and an independent COUNT over the same
// predicate.
func (s *Store) SearchCustomers(ctx context.Context, q records.CustomerQuery) ([]records.Customer, int, error) {
	pattern := likePattern(q.Search)
	phonePatterns := make([]string, 0, len(q.PhoneForms))
	for _, form := range q.PhoneForms {
		if form != "" {
			phonePatterns = append(phonePatterns, likePattern(form))
		}
	}

	const predicate = `
		($1 = '' OR name ILIKE $2 OR phone ILIKE $2 OR email ILIKE $2 OR phone ILIKE ANY($3))`

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM customers WHERE`+predicate,
		q.Search, pattern, phonePatterns,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	var limit any
	if q.Limit > 0 {
		limit = q.Limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, phone, email
		FROM customers
		WHERE`+predicate+`
		ORDER BY name ASC, id ASC
		OFFSET $4 LIMIT $5
	`, q.Search, pattern, phonePatterns, max(q.Offset, 0), limit)
	if err != nil {
		return nil, 0, fmt.Errorf("search customers: %w", err)
	}
	defer rows.Close()

	out := make([]records.Customer, 0)
	for rows.Next() {
		var c records.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email); err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("search customers: %w", err)
	}
	return out, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func (s *Store) TechniciansByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]records.TechnicianProfile, error) {
	out := make(map[uuid.UUID]records.TechnicianProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, first_name, last_name, code, position
		FROM technician_profiles
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("technicians by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t records.TechnicianProfile
		if err := rows.Scan(&t.ID, &t.FirstName, &t.LastName, &t.Code, &t.Position); err != nil {
			return nil, fmt.Errorf("scan technician: %w", err)
		}
		out[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("technicians by id: %w", err)
	}
	return out, nil
}

func (s *Store) ReviewsByJob(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID]records.CustomerReview, error) {
	out := make(map[uuid.UUID]records.CustomerReview, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, job_id, technician_ids, time_rating, manner_rating, knowledge_rating,
			overall_rating, recommend_rating, comment, created_at
		FROM customer_reviews
		WHERE job_id = ANY($1)
	`, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("reviews by job: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r records.CustomerReview
		if err := rows.Scan(
			&r.ID,
			&r.JobID,
			&r.TechnicianIDs,
			&r.Time,
			&r.Manner,
			&r.Knowledge,
			&r.Overall,
			&r.Recommend,
			&r.Comment,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out[r.JobID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reviews by job: %w", err)
	}
	return out, nil
}

func (s *Store) StatusHistory(ctx context.Context, jobID uuid.UUID) ([]records.StatusEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT job_id, status, changed_at, note
		FROM job_status_history
		WHERE job_id = $1
		ORDER BY changed_at ASC, id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("status history: %w", err)
	}
	defer rows.Close()

	out := make([]records.StatusEvent, 0)
	for rows.Next() {
		var (
			ev     records.StatusEvent
			status string
		)
		if err := rows.Scan(&ev.JobID, &status, &ev.ChangedAt, &ev.Note); err != nil {
			return nil, fmt.Errorf("scan status event: %w", err)
		}
		ev.Status = records.Status(status)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("status history: %w", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
