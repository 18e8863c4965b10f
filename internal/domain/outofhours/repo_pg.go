package outofhours

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &entryRepoPG{pool: pool}
}

func (r *entryRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const entryCols = `id, patient_id, review_dates, priority, assigned_roles, reason_for_review,
	review_status, review_type, specialty, status_changed_at, created_at, created_by, comments`

func (r *entryRepoPG) scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var dates, comments []byte
	var roles []string
	var priority, status, reviewType, specialty string
	err := row.Scan(&e.ID, &e.PatientID, &dates, &priority, &roles, &e.ReasonForReview,
		&status, &reviewType, &specialty, &e.StatusChangedAt, &e.CreatedAt, &e.CreatedBy, &comments)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(dates, &e.ReviewDates); err != nil {
		return nil, fmt.Errorf("decode review dates: %w", err)
	}
	if err := json.Unmarshal(comments, &e.Comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	e.Priority = Priority(priority)
	e.ReviewStatus = Status(status)
	e.ReviewType = ReviewType(reviewType)
	e.Specialty = Specialty(specialty)
	e.AssignedRoles = make([]Role, len(roles))
	for i, role := range roles {
		e.AssignedRoles[i] = Role(role)
	}
	return &e, nil
}

// columns encodes the JSONB and array columns for a write.
func columns(e *Entry) (dates, comments []byte, roles []string, err error) {
	if e.ReviewDates == nil {
		e.ReviewDates = []ReviewDate{}
	}
	if e.Comments == nil {
		e.Comments = []Comment{}
	}
	if dates, err = json.Marshal(e.ReviewDates); err != nil {
		return nil, nil, nil, fmt.Errorf("encode review dates: %w", err)
	}
	if comments, err = json.Marshal(e.Comments); err != nil {
		return nil, nil, nil, fmt.Errorf("encode comments: %w", err)
	}
	roles = make([]string, len(e.AssignedRoles))
	for i, role := range e.AssignedRoles {
		roles[i] = string(role)
	}
	return dates, comments, roles, nil
}

func (r *entryRepoPG) query(ctx context.Context, where string, args ...interface{}) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+entryCols+` FROM review_entry `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list review entries: %w", err)
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review entry: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *entryRepoPG) List(ctx context.Context) ([]*Entry, error) {
	return r.query(ctx, "")
}

func (r *entryRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error) {
	return r.query(ctx, "WHERE patient_id = $1", patientID)
}

func (r *entryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	e, err := r.scanEntry(r.conn(ctx).QueryRow(ctx, `SELECT `+entryCols+` FROM review_entry WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("review entry")
	}
	if err != nil {
		return nil, fmt.Errorf("get review entry %s: %w", id, err)
	}
	return e, nil
}

func (r *entryRepoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	dates, comments, roles, err := columns(e)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO review_entry (id, patient_id, review_dates, priority, assigned_roles, reason_for_review,
			review_status, review_type, specialty, status_changed_at, created_at, created_by, comments)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		e.ID, e.PatientID, dates, string(e.Priority), roles, e.ReasonForReview,
		string(e.ReviewStatus), string(e.ReviewType), string(e.Specialty), e.StatusChangedAt,
		e.CreatedAt, e.CreatedBy, comments)
	if err != nil {
		return fmt.Errorf("insert review entry: %w", err)
	}
	return nil
}

func (r *entryRepoPG) Update(ctx context.Context, e *Entry) error {
	dates, comments, roles, err := columns(e)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE review_entry SET review_dates=$2, priority=$3, assigned_roles=$4, reason_for_review=$5,
			review_status=$6, review_type=$7, specialty=$8, status_changed_at=$9, comments=$10
		WHERE id = $1`,
		e.ID, dates, string(e.Priority), roles, e.ReasonForReview,
		string(e.ReviewStatus), string(e.ReviewType), string(e.Specialty), e.StatusChangedAt, comments)
	if err != nil {
		return fmt.Errorf("update review entry %s: %w", e.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("review entry")
	}
	return nil
}

func (r *entryRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM review_entry WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("review entry")
	}
	return nil
}

func (r *entryRepoPG) DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM review_entry WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, fmt.Errorf("delete review entries of %s: %w", patientID, err)
	}
	return int(tag.RowsAffected()), nil
}
