package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/enrollment"
)

const enrollmentColumns = "id, student_id, course_id, enrolled_at, completed, progress"

type enrollmentRow struct {
	ID         string    `db:"id"`
	StudentID  string    `db:"student_id"`
	CourseID   string    `db:"course_id"`
	EnrolledAt time.Time `db:"enrolled_at"`
	Completed  bool      `db:"completed"`
	Progress   int       `db:"progress"`
}

func (r enrollmentRow) toEnrollment() enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:         r.ID,
		StudentID:  r.StudentID,
		CourseID:   r.CourseID,
		EnrolledAt: r.EnrolledAt.UTC(),
		Completed:  r.Completed,
		Progress:   r.Progress,
	}
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, filter enrollment.GetFilter) (enrollment.Enrollment, error) {
	if !validUUID(filter.StudentID) || !validUUID(filter.CourseID) {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}

	var row enrollmentRow
	q := "SELECT " + enrollmentColumns + " FROM enrollments WHERE student_id = $1 AND course_id = $2"
	if err := repo.db.GetContext(ctx, &row, q, filter.StudentID, filter.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "selecting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	var (
		conds []string
		args  []interface{}
	)
	for col, val := range map[string]string{"student_id": filter.StudentID, "course_id": filter.CourseID} {
		if val == "" {
			continue
		}
		if !validUUID(val) {
			return []enrollment.Enrollment{}, nil
		}
		args = append(args, val)
		conds = append(conds, col+" = $"+strconv.Itoa(len(args)))
	}

	q := "SELECT " + enrollmentColumns + " FROM enrollments"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY " + core.DBOrdering{Field: "enrolled_at", Ascending: true}.String()

	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}
	enrs := make([]enrollment.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrs = append(enrs, r.toEnrollment())
	}
	return enrs, nil
}

// CreateEnrollment inserts the enrollment and updates the course students in one transaction.
// The (student_id, course_id) unique constraint settles concurrent enrolls of the same pair.
func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	if !validUUID(enr.CourseID) {
		return enrollment.Enrollment{}, course.ErrNotFound
	}
	enr.ID = uuid.NewString()

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO enrollments ("+enrollmentColumns+") VALUES ($1, $2, $3, $4, $5, $6) "+
				"ON CONFLICT (student_id, course_id) DO NOTHING",
			enr.ID, enr.StudentID, enr.CourseID, enr.EnrolledAt, enr.Completed, enr.Progress,
		)
		if err != nil {
			if code, _ := pqErrorCode(err); code == foreignKeyViolation {
				return course.ErrNotFound
			}
			return errors.Wrap(err, "inserting enrollment")
		}
		if n, err := res.RowsAffected(); err != nil {
			return errors.Wrap(err, "inserting enrollment")
		} else if n == 0 {
			return enrollment.ErrAlreadyEnrolled
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE courses SET students = array_append(students, $1::text) "+
				"WHERE id = $2 AND NOT ($1::text = ANY(students))",
			enr.StudentID, enr.CourseID,
		)
		return errors.Wrap(err, "adding course student")
	})
	if err != nil {
		return enrollment.Enrollment{}, err
	}
	return enr, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	if !validUUID(enr.ID) {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	var row enrollmentRow
	q := "UPDATE enrollments SET completed = $1, progress = $2 WHERE id = $3 RETURNING " + enrollmentColumns
	if err := repo.db.GetContext(ctx, &row, q, enr.Completed, enr.Progress, enr.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	return row.toEnrollment(), nil
}
