package pgrepos

import (
	"context"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/majorhelp/majorhelp/core/calc"
)

type savedCalcRow struct {
	ID       int    `db:"id"`
	UserID   string `db:"user_id"`
	Name     string `db:"name"`
	CalcName string `db:"calc_name"`
	Uni      string `db:"uni"`
	Outstate bool   `db:"outstate"`
	Dept     string `db:"dept"`
	Major    string `db:"major"`
	Aid      string `db:"aid"`
	AidIsNum bool   `db:"aid_is_num"`
}

func (r savedCalcRow) toDomain() calc.SavedCalc {
	sc := calc.SavedCalc{
		CalcName: r.CalcName,
		Uni:      r.Uni,
		OutState: r.Outstate,
		Dept:     r.Dept,
		Major:    r.Major,
		Aid:      calc.AidValue{Str: r.Aid},
	}
	if r.AidIsNum {
		n, _ := strconv.Atoi(r.Aid)
		sc.Aid = calc.AidValue{Num: n, IsNum: true}
	}
	return sc
}

type savedCalcRepository struct {
	db *sqlx.DB
}

var _ calc.SavedCalcRepository = (*savedCalcRepository)(nil) // interface compliance check

func NewSavedCalcRepository(db *sqlx.DB) calc.SavedCalcRepository {
	return &savedCalcRepository{db: db}
}

func (repo *savedCalcRepository) UpsertCalc(ctx context.Context, userID, key string, sc calc.SavedCalc) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO saved_calculator (user_id, name, calc_name, uni, outstate, dept, major, aid, aid_is_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, name) DO UPDATE
		 SET calc_name = EXCLUDED.calc_name, uni = EXCLUDED.uni, outstate = EXCLUDED.outstate,
		     dept = EXCLUDED.dept, major = EXCLUDED.major, aid = EXCLUDED.aid,
		     aid_is_num = EXCLUDED.aid_is_num`,
		userID, key, sc.CalcName, sc.Uni, sc.OutState, sc.Dept, sc.Major, sc.Aid.String(), sc.Aid.IsNum,
	)
	return errors.Wrap(err, "upserting saved calculator")
}

func (repo *savedCalcRepository) DeleteCalc(ctx context.Context, userID, key string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM saved_calculator WHERE user_id = $1 AND name = $2`, userID, key)
	if err != nil {
		return errors.Wrap(err, "deleting saved calculator")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return calc.ErrCalcNotFound
	}
	return nil
}

func (repo *savedCalcRepository) FilterCalcs(ctx context.Context, userID, substr string) ([]calc.SavedCalc, error) {
	// strpos, not LIKE: the query is a literal substring, "%" and "_" included
	var rows []savedCalcRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM saved_calculator WHERE user_id = $1 AND ($2 = '' OR strpos(name, $2) > 0) ORDER BY name`,
		userID, substr)
	if err != nil {
		return nil, errors.Wrap(err, "listing saved calculators")
	}
	calcs := make([]calc.SavedCalc, len(rows))
	for i, r := range rows {
		calcs[i] = r.toDomain()
	}
	return calcs, nil
}
