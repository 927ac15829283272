package calc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/majorhelp/majorhelp/core"
	"github.com/majorhelp/majorhelp/core/university"
)

var (
	// errors
	ErrCalcNotFound = errors.New("calculator not found")
)

type (
	// Catalog is the slice of the university service the calculator needs.
	Catalog interface {
		Resolve(ctx context.Context, query string) (university.University, error)
		ResolveMajor(ctx context.Context, universityID int, query string) (university.Major, error)
		GetAidByName(ctx context.Context, name string) (university.FinancialAid, error)
	}

	// SavedCalcRepository persists per-user named calculator snapshots keyed by
	// lowercased name; key uniqueness is the storage layer's problem.
	SavedCalcRepository interface {
		UpsertCalc(ctx context.Context, userID, key string, sc SavedCalc) error
		DeleteCalc(ctx context.Context, userID, key string) error
		// FilterCalcs returns the snapshots whose key contains substr; empty
		// substr matches everything. Order is unspecified.
		FilterCalcs(ctx context.Context, userID, substr string) ([]SavedCalc, error)
	}

	Service struct {
		catalog Catalog
		repo    SavedCalcRepository
	}
)

func NewService(catalog Catalog, repo SavedCalcRepository) *Service {
	return &Service{catalog: catalog, repo: repo}
}

// noAidValues are aid inputs that mean "no aid" rather than a lookup failure;
// frontends have been known to send the literal strings.
var noAidValues = []string{"", "None", "null"}

// Calculate resolves the university and major, applies the residency track and
// optional aid, and returns the estimated range with its breakdown.
// The result is intentionally not floored at zero: aid larger than cost yields
// a negative estimate.
func (svc *Service) Calculate(ctx context.Context, in Input) (Estimate, error) {
	uni, err := svc.catalog.Resolve(ctx, in.University)
	if err != nil {
		return Estimate{}, err
	}
	major, err := svc.catalog.ResolveMajor(ctx, uni.ID, in.Major)
	if err != nil {
		return Estimate{}, err
	}
	aid, err := svc.resolveAid(ctx, in.Aid)
	if err != nil {
		return Estimate{}, err
	}

	baseMin, baseMax := uni.BaseTuition(in.OutOfState)
	majorMin, majorMax := major.Tuition(in.OutOfState)

	return Estimate{
		MinTuition: baseMin + majorMin + uni.Fees + major.Fees - aid.Amount,
		MaxTuition: baseMax + majorMax + uni.Fees + major.Fees - aid.Amount,
		Uni: EstimateSide{
			Name:           uni.Name,
			BaseMinTuition: baseMin,
			BaseMaxTuition: baseMax,
			Fees:           uni.Fees,
		},
		Major: EstimateSide{
			Name:           major.Name,
			BaseMinTuition: majorMin,
			BaseMaxTuition: majorMax,
			Fees:           major.Fees,
		},
		Aid: aid,
	}, nil
}

// resolveAid turns the aid input into an amount and descriptor: no-aid values
// yield a zero amount and empty descriptor; an integer is a custom amount;
// anything else must be the exact name of a known FinancialAid.
func (svc *Service) resolveAid(ctx context.Context, aid string) (AidDescriptor, error) {
	aid = core.CleanString(aid)
	for _, v := range noAidValues {
		if aid == v {
			return AidDescriptor{}, nil
		}
	}

	if amount, err := strconv.Atoi(aid); err == nil {
		return AidDescriptor{Name: fmt.Sprintf("Custom Aid ($%d)", amount), Amount: amount}, nil
	}

	aidObj, err := svc.catalog.GetAidByName(ctx, aid)
	if err != nil {
		return AidDescriptor{}, err
	}
	return AidDescriptor{Name: aidObj.Name, Amount: aidObj.Amount}, nil
}

// Save upserts mapping[lower(name)] = sc for the user. Overwriting an existing
// name, case-insensitively, is not an error.
func (svc *Service) Save(ctx context.Context, userID, name string, sc SavedCalc) error {
	key := core.CleanString(name, true /* lower */)
	if key == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "name", Error: "calculator name is required"})
	}
	return svc.repo.UpsertCalc(ctx, userID, key, sc)
}

// Delete removes mapping[lower(name)]; ErrCalcNotFound when absent.
func (svc *Service) Delete(ctx context.Context, userID, name string) error {
	key := core.CleanString(name, true /* lower */)
	if key == "" {
		return ErrCalcNotFound
	}
	return svc.repo.DeleteCalc(ctx, userID, key)
}

// List returns the user's snapshots whose lowercased name contains the
// lowercased query; an empty query matches everything.
func (svc *Service) List(ctx context.Context, userID, query string) ([]SavedCalc, error) {
	query = strings.ToLower(core.CleanString(query))
	calcs, err := svc.repo.FilterCalcs(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	if calcs == nil {
		calcs = []SavedCalc{}
	}
	return calcs, nil
}
