package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/majorhelp/majorhelp/core/university"
)

const pqUniqueViolation = "23505"

type universityRow struct {
	ID                       int       `db:"id"`
	Name                     string    `db:"name"`
	Slug                     string    `db:"slug"`
	Location                 string    `db:"location"`
	IsPublic                 bool      `db:"is_public"`
	About                    string    `db:"about"`
	TotalUndergradStudents   int       `db:"total_undergrad_students"`
	TotalGradStudents        int       `db:"total_grad_students"`
	GraduationRate           float64   `db:"graduation_rate"`
	InStateBaseMinTuition    int       `db:"in_state_base_min_tuition"`
	InStateBaseMaxTuition    int       `db:"in_state_base_max_tuition"`
	OutOfStateBaseMinTuition int       `db:"out_of_state_base_min_tuition"`
	OutOfStateBaseMaxTuition int       `db:"out_of_state_base_max_tuition"`
	Fees                     int       `db:"fees"`
	CreatedAt                time.Time `db:"created_at"`
	UpdatedAt                time.Time `db:"updated_at"`
}

func (r universityRow) toDomain() university.University {
	return university.University{
		ID:                       r.ID,
		Name:                     r.Name,
		Slug:                     r.Slug,
		Location:                 r.Location,
		IsPublic:                 r.IsPublic,
		About:                    r.About,
		TotalUndergradStudents:   r.TotalUndergradStudents,
		TotalGradStudents:        r.TotalGradStudents,
		GraduationRate:           r.GraduationRate,
		InStateBaseMinTuition:    r.InStateBaseMinTuition,
		InStateBaseMaxTuition:    r.InStateBaseMaxTuition,
		OutOfStateBaseMinTuition: r.OutOfStateBaseMinTuition,
		OutOfStateBaseMaxTuition: r.OutOfStateBaseMaxTuition,
		Fees:                     r.Fees,
		CreatedAt:                r.CreatedAt.UTC(),
		UpdatedAt:                r.UpdatedAt.UTC(),
	}
}

type majorRow struct {
	ID                   int       `db:"id"`
	UniversityID         int       `db:"university_id"`
	Name                 string    `db:"name"`
	Slug                 string    `db:"slug"`
	Department           string    `db:"department"`
	InStateMinTuition    int       `db:"in_state_min_tuition"`
	InStateMaxTuition    int       `db:"in_state_max_tuition"`
	OutOfStateMinTuition int       `db:"out_of_state_min_tuition"`
	OutOfStateMaxTuition int       `db:"out_of_state_max_tuition"`
	Fees                 int       `db:"fees"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func (r majorRow) toDomain() university.Major {
	return university.Major{
		ID:                   r.ID,
		UniversityID:         r.UniversityID,
		Name:                 r.Name,
		Slug:                 r.Slug,
		Department:           r.Department,
		InStateMinTuition:    r.InStateMinTuition,
		InStateMaxTuition:    r.InStateMaxTuition,
		OutOfStateMinTuition: r.OutOfStateMinTuition,
		OutOfStateMaxTuition: r.OutOfStateMaxTuition,
		Fees:                 r.Fees,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}
}

type aidRow struct {
	ID       int    `db:"id"`
	Name     string `db:"name"`
	Location string `db:"location"`
	Amount   int    `db:"amount"`
}

func (r aidRow) toDomain() university.FinancialAid {
	return university.FinancialAid(r)
}

type ratingRow struct {
	ID           int     `db:"id"`
	UniversityID int     `db:"university_id"`
	UserID       string  `db:"user_id"`
	Category     string  `db:"category"`
	Rating       float64 `db:"rating"`
}

type reviewRow struct {
	ID           int       `db:"id"`
	UniversityID int       `db:"university_id"`
	UserID       string    `db:"user_id"`
	Username     string    `db:"username"`
	Body         string    `db:"body"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r reviewRow) toDomain() university.Review {
	return university.Review{
		ID:           r.ID,
		UniversityID: r.UniversityID,
		UserID:       r.UserID,
		Username:     r.Username,
		Text:         r.Body,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type universityRepository struct {
	db *sqlx.DB
}

var _ university.Repository = (*universityRepository)(nil) // interface compliance check

func NewUniversityRepository(db *sqlx.DB) university.Repository {
	return &universityRepository{db: db}
}

func (repo *universityRepository) SearchUniversities(ctx context.Context, prefix string) ([]university.University, error) {
	var rows []universityRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM university WHERE name ILIKE $1 || '%' ORDER BY name`, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "searching universities")
	}
	unis := make([]university.University, len(rows))
	for i, r := range rows {
		unis[i] = r.toDomain()
	}
	return unis, nil
}

func (repo *universityRepository) GetUniversityByID(ctx context.Context, id int) (university.University, error) {
	var row universityRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM university WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return university.University{}, university.ErrUniversityNotFound
	}
	if err != nil {
		return university.University{}, errors.Wrap(err, "getting university by id")
	}
	return row.toDomain(), nil
}

func (repo *universityRepository) GetUniversityByName(ctx context.Context, name string) (university.University, error) {
	var row universityRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM university WHERE lower(name) = lower($1) ORDER BY name LIMIT 1`, name)
	if err == sql.ErrNoRows {
		return university.University{}, university.ErrUniversityNotFound
	}
	if err != nil {
		return university.University{}, errors.Wrap(err, "getting university by name")
	}
	return row.toDomain(), nil
}

func (repo *universityRepository) FirstUniversityMatching(ctx context.Context, substr string) (university.University, error) {
	var row universityRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM university WHERE name ILIKE '%' || $1 || '%' ORDER BY name LIMIT 1`, substr)
	if err == sql.ErrNoRows {
		return university.University{}, university.ErrUniversityNotFound
	}
	if err != nil {
		return university.University{}, errors.Wrap(err, "matching university")
	}
	return row.toDomain(), nil
}

func (repo *universityRepository) CreateUniversity(ctx context.Context, uni university.University) (university.University, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO university (name, slug, location, is_public, about, total_undergrad_students,
		                         total_grad_students, graduation_rate, in_state_base_min_tuition,
		                         in_state_base_max_tuition, out_of_state_base_min_tuition,
		                         out_of_state_base_max_tuition, fees, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		uni.Name, uni.Slug, uni.Location, uni.IsPublic, uni.About, uni.TotalUndergradStudents,
		uni.TotalGradStudents, uni.GraduationRate, uni.InStateBaseMinTuition,
		uni.InStateBaseMaxTuition, uni.OutOfStateBaseMinTuition,
		uni.OutOfStateBaseMaxTuition, uni.Fees, uni.CreatedAt, uni.UpdatedAt,
	).Scan(&uni.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return university.University{}, university.ErrSlugExists
		}
		return university.University{}, errors.Wrap(err, "creating university")
	}
	return uni, nil
}

func (repo *universityRepository) UpdateUniversity(ctx context.Context, uni university.University) (university.University, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE university
		 SET name = $1, slug = $2, location = $3, is_public = $4, about = $5,
		     total_undergrad_students = $6, total_grad_students = $7, graduation_rate = $8,
		     in_state_base_min_tuition = $9, in_state_base_max_tuition = $10,
		     out_of_state_base_min_tuition = $11, out_of_state_base_max_tuition = $12,
		     fees = $13, updated_at = $14
		 WHERE id = $15`,
		uni.Name, uni.Slug, uni.Location, uni.IsPublic, uni.About,
		uni.TotalUndergradStudents, uni.TotalGradStudents, uni.GraduationRate,
		uni.InStateBaseMinTuition, uni.InStateBaseMaxTuition,
		uni.OutOfStateBaseMinTuition, uni.OutOfStateBaseMaxTuition,
		uni.Fees, uni.UpdatedAt, uni.ID,
	)
	if err != nil {
		return university.University{}, errors.Wrap(err, "updating university")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return university.University{}, university.ErrUniversityNotFound
	}
	return uni, nil
}

func (repo *universityRepository) MajorsByUniversity(ctx context.Context, universityID int, department string) ([]university.Major, error) {
	q := `SELECT * FROM major WHERE university_id = $1`
	args := []interface{}{universityID}
	if department != "" {
		q += ` AND department = $2`
		args = append(args, department)
	}
	q += ` ORDER BY name`

	var rows []majorRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "listing majors")
	}
	majors := make([]university.Major, len(rows))
	for i, r := range rows {
		majors[i] = r.toDomain()
	}
	return majors, nil
}

func (repo *universityRepository) GetMajorByName(ctx context.Context, universityID int, name string) (university.Major, error) {
	var row majorRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM major WHERE university_id = $1 AND lower(name) = lower($2) ORDER BY name LIMIT 1`,
		universityID, name)
	if err == sql.ErrNoRows {
		return university.Major{}, university.ErrMajorNotFound
	}
	if err != nil {
		return university.Major{}, errors.Wrap(err, "getting major by name")
	}
	return row.toDomain(), nil
}

func (repo *universityRepository) FirstMajorMatching(ctx context.Context, universityID int, substr string) (university.Major, error) {
	var row majorRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM major WHERE university_id = $1 AND name ILIKE '%' || $2 || '%' ORDER BY name LIMIT 1`,
		universityID, substr)
	if err == sql.ErrNoRows {
		return university.Major{}, university.ErrMajorNotFound
	}
	if err != nil {
		return university.Major{}, errors.Wrap(err, "matching major")
	}
	return row.toDomain(), nil
}

func (repo *universityRepository) CreateMajor(ctx context.Context, major university.Major) (university.Major, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO major (university_id, name, slug, department, in_state_min_tuition,
		                    in_state_max_tuition, out_of_state_min_tuition, out_of_state_max_tuition,
		                    fees, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		major.UniversityID, major.Name, major.Slug, major.Department, major.InStateMinTuition,
		major.InStateMaxTuition, major.OutOfStateMinTuition, major.OutOfStateMaxTuition,
		major.Fees, major.CreatedAt, major.UpdatedAt,
	).Scan(&major.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return university.Major{}, university.ErrSlugExists
		}
		return university.Major{}, errors.Wrap(err, "creating major")
	}
	return major, nil
}

func (repo *universityRepository) AidsByUniversity(ctx context.Context, universityID int) ([]university.FinancialAid, error) {
	var rows []aidRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT fa.* FROM financial_aid fa
		 JOIN university_aid ua ON ua.aid_id = fa.id
		 WHERE ua.university_id = $1
		 ORDER BY fa.name`, universityID)
	if err != nil {
		return nil, errors.Wrap(err, "listing aids")
	}
	aids := make([]university.FinancialAid, len(rows))
	for i, r := range rows {
		aids[i] = r.toDomain()
	}
	return aids, nil
}

func (repo *universityRepository) GetAidByName(ctx context.Context, name string) (university.FinancialAid, error) {
	var row aidRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM financial_aid WHERE name = $1`, name)
	if err == sql.ErrNoRows {
		return university.FinancialAid{}, university.ErrAidNotFound
	}
	if err != nil {
		return university.FinancialAid{}, errors.Wrap(err, "getting aid by name")
	}
	return row.toDomain(), nil
}

func (repo *universityRepository) CreateAid(ctx context.Context, aid university.FinancialAid, universityIDs []int) (university.FinancialAid, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return university.FinancialAid{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO financial_aid (name, location, amount) VALUES ($1, $2, $3) RETURNING id`,
		aid.Name, aid.Location, aid.Amount,
	).Scan(&aid.ID)
	if err != nil {
		return university.FinancialAid{}, errors.Wrap(err, "creating aid")
	}
	for _, uniID := range universityIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO university_aid (university_id, aid_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			uniID, aid.ID,
		); err != nil {
			return university.FinancialAid{}, errors.Wrap(err, "linking aid to university")
		}
	}
	if err = tx.Commit(); err != nil {
		return university.FinancialAid{}, errors.Wrap(err, "committing tx")
	}
	return aid, nil
}

func (repo *universityRepository) UpsertRating(ctx context.Context, rating university.Rating) (university.Rating, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO university_rating (university_id, user_id, category, rating)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (university_id, category, user_id) DO UPDATE SET rating = EXCLUDED.rating
		 RETURNING id`,
		rating.UniversityID, rating.UserID, rating.Category, rating.Value,
	).Scan(&rating.ID)
	if err != nil {
		return university.Rating{}, errors.Wrap(err, "upserting rating")
	}
	return rating, nil
}

func (repo *universityRepository) AverageRating(ctx context.Context, universityID int, category string) (null.Float64, error) {
	var avg null.Float64
	err := repo.db.GetContext(ctx, &avg,
		`SELECT AVG(rating) FROM university_rating WHERE university_id = $1 AND category = $2`,
		universityID, category)
	if err != nil {
		return null.Float64{}, errors.Wrap(err, "averaging ratings")
	}
	return avg, nil
}

func (repo *universityRepository) AverageRatings(ctx context.Context, universityID int) (map[string]float64, error) {
	rows, err := repo.db.QueryxContext(ctx,
		`SELECT category, AVG(rating) FROM university_rating WHERE university_id = $1 GROUP BY category`,
		universityID)
	if err != nil {
		return nil, errors.Wrap(err, "averaging ratings")
	}
	defer func() { _ = rows.Close() }()

	avgs := make(map[string]float64)
	for rows.Next() {
		var category string
		var avg float64
		if err = rows.Scan(&category, &avg); err != nil {
			return nil, errors.Wrap(err, "averaging ratings")
		}
		avgs[category] = avg
	}
	return avgs, rows.Err()
}

func (repo *universityRepository) ReviewsByUniversity(ctx context.Context, universityID int) ([]university.Review, error) {
	var rows []reviewRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM review WHERE university_id = $1 ORDER BY created_at DESC`, universityID)
	if err != nil {
		return nil, errors.Wrap(err, "listing reviews")
	}
	reviews := make([]university.Review, len(rows))
	for i, r := range rows {
		reviews[i] = r.toDomain()
	}
	return reviews, nil
}

func (repo *universityRepository) CreateReview(ctx context.Context, review university.Review) (university.Review, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO review (university_id, user_id, username, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		review.UniversityID, review.UserID, review.Username, review.Text, review.CreatedAt,
	).Scan(&review.ID)
	if err != nil {
		return university.Review{}, errors.Wrap(err, "creating review")
	}
	return review, nil
}

func (repo *universityRepository) PurgeReviews(ctx context.Context) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM review`)
	if err != nil {
		return 0, errors.Wrap(err, "purging reviews")
	}
	return res.RowsAffected()
}
