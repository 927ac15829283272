package calc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/majorhelp/majorhelp/core/calc"
	"github.com/majorhelp/majorhelp/core/university"
	dummydb "github.com/majorhelp/majorhelp/storage/database/dummy"
)

func setup(t *testing.T) (*calc.Service, *university.Service) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed, %v", err)
	}
	uniSvc := university.NewService(dummydb.NewUniversityRepository(db))
	calcSvc := calc.NewService(uniSvc, dummydb.NewSavedCalcRepository(db))
	return calcSvc, uniSvc
}

// seedUofSC loads the fixture: base 10000-12000 in state with fees 500, CIS
// major 2000-3000 with fees 100, and a "Palmetto Fellows" aid worth 7000.
func seedUofSC(t *testing.T, uniSvc *university.Service) university.University {
	t.Helper()
	ctx := context.Background()

	uni, err := uniSvc.Create(ctx, university.NewUniversity{
		Name:                     "University of South Carolina",
		Location:                 "Columbia, SC",
		IsPublic:                 true,
		InStateBaseMinTuition:    10000,
		InStateBaseMaxTuition:    12000,
		OutOfStateBaseMinTuition: 25000,
		OutOfStateBaseMaxTuition: 30000,
		Fees:                     500,
	})
	if err != nil {
		t.Fatalf("seedUofSC() failed, %v", err)
	}

	if _, err = uniSvc.CreateMajor(ctx, uni.ID, university.NewMajor{
		Name:                 "Computer Information Systems",
		Department:           "Engineering and Technology",
		InStateMinTuition:    2000,
		InStateMaxTuition:    3000,
		OutOfStateMinTuition: 4000,
		OutOfStateMaxTuition: 6000,
		Fees:                 100,
	}); err != nil {
		t.Fatalf("seedUofSC() failed, %v", err)
	}

	if _, err = uniSvc.CreateAid(ctx, university.NewAid{
		Name:          "Palmetto Fellows",
		Location:      "South Carolina",
		Amount:        7000,
		UniversityIDs: []int{uni.ID},
	}); err != nil {
		t.Fatalf("seedUofSC() failed, %v", err)
	}
	return uni
}

func TestService_Calculate(t *testing.T) {
	calcSvc, uniSvc := setup(t)
	seedUofSC(t, uniSvc)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      calc.Input
		wantMin int
		wantMax int
		wantAid calc.AidDescriptor
		wantErr error
	}{
		{
			name:    "in state no aid",
			in:      calc.Input{University: "UofSC", Major: "Computer Information", Aid: ""},
			wantMin: 12600, // 10000 + 2000 + 500 + 100
			wantMax: 15600, // 12000 + 3000 + 500 + 100
		},
		{
			name:    "named aid",
			in:      calc.Input{University: "University of South Carolina", Major: "Computer Information Systems", Aid: "Palmetto Fellows"},
			wantMin: 5600,
			wantMax: 8600,
			wantAid: calc.AidDescriptor{Name: "Palmetto Fellows", Amount: 7000},
		},
		{
			name:    "custom numeric aid",
			in:      calc.Input{University: "UofSC", Major: "CIS", Aid: "1500"},
			wantMin: 11100,
			wantMax: 14100,
			wantAid: calc.AidDescriptor{Name: "Custom Aid ($1500)", Amount: 1500},
		},
		{
			name:    "out of state",
			in:      calc.Input{University: "UofSC", Major: "CIS", OutOfState: true},
			wantMin: 29600, // 25000 + 4000 + 500 + 100
			wantMax: 36600, // 30000 + 6000 + 500 + 100
		},
		{
			name:    "aid larger than cost goes negative",
			in:      calc.Input{University: "UofSC", Major: "CIS", Aid: "20000"},
			wantMin: -7400,
			wantMax: -4400,
			wantAid: calc.AidDescriptor{Name: "Custom Aid ($20000)", Amount: 20000},
		},
		{
			name:    "unknown university",
			in:      calc.Input{University: "Hogwarts", Major: "CIS"},
			wantErr: university.ErrUniversityNotFound,
		},
		{
			name:    "unknown major",
			in:      calc.Input{University: "UofSC", Major: "Divination"},
			wantErr: university.ErrMajorNotFound,
		},
		{
			name:    "unknown aid name",
			in:      calc.Input{University: "UofSC", Major: "CIS", Aid: "Quidditch Scholarship"},
			wantErr: university.ErrAidNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := calcSvc.Calculate(ctx, tt.in)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantMin, est.MinTuition)
			assert.Equal(t, tt.wantMax, est.MaxTuition)
			assert.Equal(t, tt.wantAid, est.Aid)
		})
	}
}

// max - min always equals the university range plus the major range; fees and
// aid shift both bounds equally.
func TestService_Calculate_rangeWidth(t *testing.T) {
	calcSvc, uniSvc := setup(t)
	seedUofSC(t, uniSvc)
	ctx := context.Background()

	const wantWidth = (12000 - 10000) + (3000 - 2000)

	for _, aid := range []string{"", "500", "Palmetto Fellows", "999999"} {
		est, err := calcSvc.Calculate(ctx, calc.Input{University: "UofSC", Major: "CIS", Aid: aid})
		assert.NoError(t, err)
		assert.Equal(t, wantWidth, est.MaxTuition-est.MinTuition)
	}
}

func TestService_Calculate_noAidValues(t *testing.T) {
	calcSvc, uniSvc := setup(t)
	seedUofSC(t, uniSvc)
	ctx := context.Background()

	for _, aid := range []string{"", "None", "null", "  None  "} {
		est, err := calcSvc.Calculate(ctx, calc.Input{University: "UofSC", Major: "CIS", Aid: aid})
		assert.NoError(t, err)
		assert.Equal(t, calc.AidDescriptor{}, est.Aid)
		assert.Equal(t, 12600, est.MinTuition)
		assert.Equal(t, 15600, est.MaxTuition)
	}
}

func TestService_SaveListDelete(t *testing.T) {
	calcSvc, _ := setup(t)
	ctx := context.Background()
	userID := "user-1"

	payload := calc.SavedCalc{
		CalcName: "My UofSC Plan",
		Uni:      "University of South Carolina",
		OutState: false,
		Dept:     "Engineering and Technology",
		Major:    "Computer Information Systems",
		Aid:      calc.AidValue{Str: "Palmetto Fellows"},
	}

	assert.NoError(t, calcSvc.Save(ctx, userID, "UofSC", payload))

	// saving under a case-variant of the same name overwrites, not duplicates
	payload2 := payload
	payload2.OutState = true
	assert.NoError(t, calcSvc.Save(ctx, userID, "uofsc", payload2))

	calcs, err := calcSvc.List(ctx, userID, "")
	assert.NoError(t, err)
	assert.Len(t, calcs, 1)
	assert.Equal(t, payload2, calcs[0]) // round-trips unmodified

	// substring filter
	calcs, err = calcSvc.List(ctx, userID, "of")
	assert.NoError(t, err)
	assert.Len(t, calcs, 1)
	calcs, err = calcSvc.List(ctx, userID, "zzz")
	assert.NoError(t, err)
	assert.Empty(t, calcs)

	// another user's registry is isolated
	calcs, err = calcSvc.List(ctx, "user-2", "")
	assert.NoError(t, err)
	assert.Empty(t, calcs)

	assert.Equal(t, calc.ErrCalcNotFound, calcSvc.Delete(ctx, userID, "nope"))
	assert.NoError(t, calcSvc.Delete(ctx, userID, "UOFSC"))
	calcs, err = calcSvc.List(ctx, userID, "")
	assert.NoError(t, err)
	assert.Empty(t, calcs)
}

func TestService_List_literalFilter(t *testing.T) {
	calcSvc, _ := setup(t)
	ctx := context.Background()
	userID := "user-1"

	payload := calc.SavedCalc{
		CalcName: "Plain",
		Uni:      "University of South Carolina",
		OutState: false,
		Dept:     "Engineering and Technology",
		Major:    "Computer Information Systems",
		Aid:      calc.AidValue{Str: ""},
	}
	assert.NoError(t, calcSvc.Save(ctx, userID, "plain plan", payload))
	assert.NoError(t, calcSvc.Save(ctx, userID, "100% aid plan", payload))

	// "%" and "_" are ordinary characters, not wildcards
	calcs, err := calcSvc.List(ctx, userID, "100%")
	assert.NoError(t, err)
	assert.Len(t, calcs, 1)

	calcs, err = calcSvc.List(ctx, userID, "_")
	assert.NoError(t, err)
	assert.Empty(t, calcs)

	calcs, err = calcSvc.List(ctx, userID, "plan")
	assert.NoError(t, err)
	assert.Len(t, calcs, 2)
}

func TestService_Save_numericAidRoundTrip(t *testing.T) {
	calcSvc, _ := setup(t)
	ctx := context.Background()

	payload := calc.SavedCalc{
		CalcName: "Custom",
		Uni:      "Clemson University",
		OutState: true,
		Dept:     "Business and Economics",
		Major:    "Economics",
		Aid:      calc.AidValue{Num: 1500, IsNum: true},
	}
	assert.NoError(t, calcSvc.Save(ctx, "user-1", "custom", payload))

	calcs, err := calcSvc.List(ctx, "user-1", "")
	assert.NoError(t, err)
	assert.Len(t, calcs, 1)
	assert.Equal(t, payload, calcs[0])
}

func TestService_Save_emptyName(t *testing.T) {
	calcSvc, _ := setup(t)

	err := calcSvc.Save(context.Background(), "user-1", "   ", calc.SavedCalc{})
	assert.Error(t, err)
}
