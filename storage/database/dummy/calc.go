package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/majorhelp/majorhelp/core/calc"
)

type savedCalcRepository struct {
	db *savedCalcTable
}

var _ calc.SavedCalcRepository = (*savedCalcRepository)(nil) // interface compliance check

func NewSavedCalcRepository(db *DB) calc.SavedCalcRepository {
	return &savedCalcRepository{db: db.savedCalc}
}

func (repo *savedCalcRepository) UpsertCalc(_ context.Context, userID, key string, sc calc.SavedCalc) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	calcs, ok := repo.db.table[userID]
	if !ok {
		calcs = make(map[string]calc.SavedCalc)
		repo.db.table[userID] = calcs
	}
	calcs[key] = sc
	return nil
}

func (repo *savedCalcRepository) DeleteCalc(_ context.Context, userID, key string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[userID][key]; !ok {
		return calc.ErrCalcNotFound
	}
	delete(repo.db.table[userID], key)
	return nil
}

func (repo *savedCalcRepository) FilterCalcs(_ context.Context, userID, substr string) ([]calc.SavedCalc, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	keys := make([]string, 0, len(repo.db.table[userID]))
	for key := range repo.db.table[userID] {
		if strings.Contains(key, substr) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	calcs := make([]calc.SavedCalc, len(keys))
	for i, key := range keys {
		calcs[i] = repo.db.table[userID][key]
	}
	return calcs, nil
}
