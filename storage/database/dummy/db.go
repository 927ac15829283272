package dummydb

import (
	"sync"

	"github.com/majorhelp/majorhelp/core/calc"
	"github.com/majorhelp/majorhelp/core/university"
	"github.com/majorhelp/majorhelp/core/user"
)

type (
	DB struct {
		user       *userTable
		university *universityTable
		savedCalc  *savedCalcTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	universityTable struct {
		sync.RWMutex
		unis    map[int]*university.University
		majors  map[int]*university.Major
		aids    map[int]*university.FinancialAid
		aidUnis map[int][]int // aid ID -> applicable university IDs
		ratings map[int]*university.Rating
		reviews map[int]*university.Review
	}

	savedCalcTable struct {
		sync.RWMutex
		table map[string]map[string]calc.SavedCalc // user ID -> key -> snapshot
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		university: &universityTable{
			unis:    make(map[int]*university.University),
			majors:  make(map[int]*university.Major),
			aids:    make(map[int]*university.FinancialAid),
			aidUnis: make(map[int][]int),
			ratings: make(map[int]*university.Rating),
			reviews: make(map[int]*university.Review),
		},
		savedCalc: &savedCalcTable{table: make(map[string]map[string]calc.SavedCalc)},
	}
	return db, nil
}
