package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/desaconnect/complaint-service/internal/domain"
)

// ErrDuplicateReference signals a reference-code collision on insert.
// The submission service retries with a fresh code.
var ErrDuplicateReference = errors.New("duplicate reference code")

// SubmissionFilter captures admin search parameters.
type SubmissionFilter struct {
	Status   *domain.SubmissionStatus
	Category *string
	Priority *domain.SubmissionPriority
	// Search matches reference code, submitter name and description.
	Search   *string
	SortAsc  bool
	Page     int
	PageSize int
}

// SubmissionRepository encapsulates submission persistence.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	GetByReferenceID(ctx context.Context, code string) (*domain.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, int, error)
	All(ctx context.Context) ([]domain.Submission, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, actor string) error
	UpdatePriority(ctx context.Context, id string, priority domain.SubmissionPriority, actor string) error
	UpdateComments(ctx context.Context, id string, comments []domain.InternalComment, actor string) error
	UpdateAssignee(ctx context.Context, id string, assignee *string, actor string) error
	Delete(ctx context.Context, id string) error
}

type submissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(pool *pgxpool.Pool) SubmissionRepository {
	return &submissionRepository{pool: pool}
}

const submissionColumns = `id, reference_id, name, contact_info, category, description, file_url,
               status, priority, internal_comments, assigned_to, last_updated_by, created_at, updated_at`

func (r *submissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	const query = `
        INSERT INTO submissions (reference_id, name, contact_info, category, description, file_url, status, priority, internal_comments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	comments, err := marshalComments(sub.InternalComments)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx, query,
		sub.ReferenceID,
		sub.Name,
		sub.ContactInfo,
		sub.Category,
		sub.Description,
		sub.FileURL,
		sub.Status,
		sub.Priority,
		comments,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateReference, sub.ReferenceID)
	}
	return err
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *submissionRepository) GetByReferenceID(ctx context.Context, code string) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE reference_id=$1`
	return r.fetchSingle(ctx, query, strings.ToUpper(strings.TrimSpace(code)))
}

func (r *submissionRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Submission, error) {
	sub, err := scanSubmission(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(reference_id) LIKE %s OR LOWER(COALESCE(name,'')) LIKE %s OR LOWER(description) LIKE %s)",
			placeholder, placeholder, placeholder))
	}
	where := strings.Join(clauses, " AND ")

	// Total reflects the filtered set, not the page.
	var total int
	countQuery := `SELECT COUNT(*) FROM submissions WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	order := "DESC"
	if filter.SortAsc {
		order = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE %s ORDER BY created_at %s LIMIT %d OFFSET %d`,
		submissionColumns, where, order, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := scanSubmissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *submissionRepository) All(ctx context.Context) ([]domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, actor string) error {
	const query = `UPDATE submissions SET status=$1, last_updated_by=$2, updated_at=NOW() WHERE id=$3`
	return r.execSingle(ctx, query, status, actor, id)
}

func (r *submissionRepository) UpdatePriority(ctx context.Context, id string, priority domain.SubmissionPriority, actor string) error {
	const query = `UPDATE submissions SET priority=$1, last_updated_by=$2, updated_at=NOW() WHERE id=$3`
	return r.execSingle(ctx, query, priority, actor, id)
}

func (r *submissionRepository) UpdateComments(ctx context.Context, id string, comments []domain.InternalComment, actor string) error {
	blob, err := marshalComments(comments)
	if err != nil {
		return err
	}
	const query = `UPDATE submissions SET internal_comments=$1, last_updated_by=$2, updated_at=NOW() WHERE id=$3`
	return r.execSingle(ctx, query, blob, actor, id)
}

func (r *submissionRepository) UpdateAssignee(ctx context.Context, id string, assignee *string, actor string) error {
	const query = `UPDATE submissions SET assigned_to=$1, last_updated_by=$2, updated_at=NOW() WHERE id=$3`
	return r.execSingle(ctx, query, assignee, actor, id)
}

func (r *submissionRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM submissions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *submissionRepository) execSingle(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var sub domain.Submission
	var comments []byte
	if err := row.Scan(
		&sub.ID,
		&sub.ReferenceID,
		&sub.Name,
		&sub.ContactInfo,
		&sub.Category,
		&sub.Description,
		&sub.FileURL,
		&sub.Status,
		&sub.Priority,
		&comments,
		&sub.AssignedTo,
		&sub.LastUpdatedBy,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := unmarshalComments(comments)
	if err != nil {
		return nil, err
	}
	sub.ReferenceID = strings.TrimSpace(sub.ReferenceID)
	sub.InternalComments = parsed
	return &sub, nil
}

func scanSubmissions(rows pgx.Rows) ([]domain.Submission, error) {
	var result []domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sub)
	}
	return result, rows.Err()
}

func marshalComments(comments []domain.InternalComment) ([]byte, error) {
	if comments == nil {
		comments = []domain.InternalComment{}
	}
	return json.Marshal(comments)
}

// unmarshalComments tolerates a missing blob, treating it as an
// empty thread.
func unmarshalComments(blob []byte) ([]domain.InternalComment, error) {
	if len(blob) == 0 || string(blob) == "null" {
		return []domain.InternalComment{}, nil
	}
	var comments []domain.InternalComment
	if err := json.Unmarshal(blob, &comments); err != nil {
		return nil, fmt.Errorf("decode internal comments: %w", err)
	}
	if comments == nil {
		comments = []domain.InternalComment{}
	}
	return comments, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
