package university

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/majorhelp/majorhelp/core"
)

var (
	// errors
	ErrUniversityNotFound = errors.New("university not found")
	ErrMajorNotFound      = errors.New("major not found")
	ErrAidNotFound        = errors.New("financial aid not found")
	ErrSlugExists         = errors.New("a university with this slug already exists")
)

type (
	Repository interface {
		// SearchUniversities does a case-insensitive prefix match on name, ordered by name.
		SearchUniversities(ctx context.Context, prefix string) ([]University, error)
		GetUniversityByID(ctx context.Context, id int) (University, error)
		// GetUniversityByName does an exact case-insensitive name match.
		GetUniversityByName(ctx context.Context, name string) (University, error)
		// FirstUniversityMatching returns the first university whose name contains
		// the given substring (case-insensitive), ordered by name.
		FirstUniversityMatching(ctx context.Context, substr string) (University, error)
		CreateUniversity(ctx context.Context, uni University) (University, error)
		UpdateUniversity(ctx context.Context, uni University) (University, error)

		MajorsByUniversity(ctx context.Context, universityID int, department string) ([]Major, error)
		// FirstMajorMatching applies the university name-resolution policy to majors,
		// scoped to one university.
		FirstMajorMatching(ctx context.Context, universityID int, substr string) (Major, error)
		GetMajorByName(ctx context.Context, universityID int, name string) (Major, error)
		CreateMajor(ctx context.Context, major Major) (Major, error)

		AidsByUniversity(ctx context.Context, universityID int) ([]FinancialAid, error)
		GetAidByName(ctx context.Context, name string) (FinancialAid, error)
		CreateAid(ctx context.Context, aid FinancialAid, universityIDs []int) (FinancialAid, error)

		// UpsertRating creates or replaces the unique (university, category, user) rating.
		UpsertRating(ctx context.Context, rating Rating) (Rating, error)
		// AverageRating aggregates on read; a null average means no ratings exist.
		AverageRating(ctx context.Context, universityID int, category string) (null.Float64, error)
		AverageRatings(ctx context.Context, universityID int) (map[string]float64, error)

		ReviewsByUniversity(ctx context.Context, universityID int) ([]Review, error)
		CreateReview(ctx context.Context, review Review) (Review, error)
		// PurgeReviews deletes all reviews and reports how many went away.
		PurgeReviews(ctx context.Context) (int64, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search returns name+location summaries of universities whose name starts
// with the query (case-insensitive), ordered by name.
func (svc *Service) Search(ctx context.Context, query string) ([]University, error) {
	return svc.repo.SearchUniversities(ctx, core.CleanString(query))
}

func (svc *Service) GetByID(ctx context.Context, id int) (University, error) {
	return svc.repo.GetUniversityByID(ctx, id)
}

// Resolve finds one university for a free-text query: an exact case-insensitive
// name match wins; otherwise the first substring match ordered by name, so that
// ambiguous queries resolve deterministically.
func (svc *Service) Resolve(ctx context.Context, query string) (University, error) {
	query = core.CleanString(query)
	if query == "" {
		return University{}, ErrUniversityNotFound
	}
	if uni, err := svc.repo.GetUniversityByName(ctx, query); err == nil {
		return uni, nil
	} else if errors.Cause(err) != ErrUniversityNotFound {
		return University{}, err
	}
	return svc.repo.FirstUniversityMatching(ctx, query)
}

// ResolveMajor applies the same policy as Resolve, scoped to a university.
func (svc *Service) ResolveMajor(ctx context.Context, universityID int, query string) (Major, error) {
	query = core.CleanString(query)
	if query == "" {
		return Major{}, ErrMajorNotFound
	}
	if major, err := svc.repo.GetMajorByName(ctx, universityID, query); err == nil {
		return major, nil
	} else if errors.Cause(err) != ErrMajorNotFound {
		return Major{}, err
	}
	return svc.repo.FirstMajorMatching(ctx, universityID, query)
}

// Majors lists a university's majors, optionally filtered by department.
func (svc *Service) Majors(ctx context.Context, universityQuery, department string) ([]Major, error) {
	uni, err := svc.Resolve(ctx, universityQuery)
	if err != nil {
		return nil, err
	}
	return svc.repo.MajorsByUniversity(ctx, uni.ID, core.CleanString(department))
}

// Aids lists the financial aids applicable to a university.
func (svc *Service) Aids(ctx context.Context, universityQuery string) ([]FinancialAid, error) {
	uni, err := svc.Resolve(ctx, universityQuery)
	if err != nil {
		return nil, err
	}
	return svc.repo.AidsByUniversity(ctx, uni.ID)
}

func (svc *Service) GetAidByName(ctx context.Context, name string) (FinancialAid, error) {
	return svc.repo.GetAidByName(ctx, core.CleanString(name))
}

func (svc *Service) Create(ctx context.Context, nu NewUniversity) (University, error) {
	now := time.Now().UTC()
	uni := University{
		Name:                     nu.Name,
		Slug:                     Slugify(nu.Name),
		Location:                 nu.Location,
		IsPublic:                 nu.IsPublic,
		About:                    nu.About,
		TotalUndergradStudents:   nu.TotalUndergradStudents,
		TotalGradStudents:        nu.TotalGradStudents,
		GraduationRate:           nu.GraduationRate,
		InStateBaseMinTuition:    nu.InStateBaseMinTuition,
		InStateBaseMaxTuition:    nu.InStateBaseMaxTuition,
		OutOfStateBaseMinTuition: nu.OutOfStateBaseMinTuition,
		OutOfStateBaseMaxTuition: nu.OutOfStateBaseMaxTuition,
		Fees:                     nu.Fees,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	return svc.repo.CreateUniversity(ctx, uni)
}

func (svc *Service) Update(ctx context.Context, id int, uu UpdateUniversity) (University, error) {
	uni, err := svc.repo.GetUniversityByID(ctx, id)
	if err != nil {
		return University{}, err
	}

	if uu.Name != "" {
		uni.Name = uu.Name
		uni.Slug = Slugify(uu.Name)
	}
	if uu.Location != "" {
		uni.Location = uu.Location
	}
	if uu.IsPublic != nil {
		uni.IsPublic = *uu.IsPublic
	}
	if uu.About != nil {
		uni.About = *uu.About
	}
	if uu.TotalUndergradStudents != nil {
		uni.TotalUndergradStudents = *uu.TotalUndergradStudents
	}
	if uu.TotalGradStudents != nil {
		uni.TotalGradStudents = *uu.TotalGradStudents
	}
	if uu.GraduationRate != nil {
		uni.GraduationRate = *uu.GraduationRate
	}
	if uu.InStateBaseMinTuition != nil {
		uni.InStateBaseMinTuition = *uu.InStateBaseMinTuition
	}
	if uu.InStateBaseMaxTuition != nil {
		uni.InStateBaseMaxTuition = *uu.InStateBaseMaxTuition
	}
	if uu.OutOfStateBaseMinTuition != nil {
		uni.OutOfStateBaseMinTuition = *uu.OutOfStateBaseMinTuition
	}
	if uu.OutOfStateBaseMaxTuition != nil {
		uni.OutOfStateBaseMaxTuition = *uu.OutOfStateBaseMaxTuition
	}
	if uu.Fees != nil {
		uni.Fees = *uu.Fees
	}

	// the write-time tuition invariant survives partial updates
	if uni.InStateBaseMaxTuition < uni.InStateBaseMinTuition {
		return University{}, core.NewValidationError(nil, core.FieldError{
			Field: "in_state_base_max_tuition", Error: "must be greater than or equal to min tuition",
		})
	}
	if uni.OutOfStateBaseMaxTuition < uni.OutOfStateBaseMinTuition {
		return University{}, core.NewValidationError(nil, core.FieldError{
			Field: "out_of_state_base_max_tuition", Error: "must be greater than or equal to min tuition",
		})
	}

	uni.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUniversity(ctx, uni)
}

func (svc *Service) CreateMajor(ctx context.Context, universityID int, nm NewMajor) (Major, error) {
	uni, err := svc.repo.GetUniversityByID(ctx, universityID)
	if err != nil {
		return Major{}, err
	}
	now := time.Now().UTC()
	major := Major{
		UniversityID:         uni.ID,
		Name:                 nm.Name,
		Slug:                 uni.Slug + "/" + Slugify(nm.Name),
		Department:           nm.Department,
		InStateMinTuition:    nm.InStateMinTuition,
		InStateMaxTuition:    nm.InStateMaxTuition,
		OutOfStateMinTuition: nm.OutOfStateMinTuition,
		OutOfStateMaxTuition: nm.OutOfStateMaxTuition,
		Fees:                 nm.Fees,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	return svc.repo.CreateMajor(ctx, major)
}

func (svc *Service) CreateAid(ctx context.Context, na NewAid) (FinancialAid, error) {
	aid := FinancialAid{
		Name:     na.Name,
		Location: na.Location,
		Amount:   na.Amount,
	}
	return svc.repo.CreateAid(ctx, aid, na.UniversityIDs)
}

// SubmitRating upserts the caller's rating: submitting twice for the same
// (university, category) replaces the previous value instead of appending.
func (svc *Service) SubmitRating(ctx context.Context, nr NewRating) (Rating, error) {
	if _, err := svc.repo.GetUniversityByID(ctx, nr.UniversityID); err != nil {
		return Rating{}, err
	}
	rating := Rating{
		UniversityID: nr.UniversityID,
		UserID:       nr.UserID,
		Category:     nr.Category,
		Value:        nr.Value,
	}
	return svc.repo.UpsertRating(ctx, rating)
}

// AverageRating returns the arithmetic mean of all ratings for the
// (university, category) pair, rounded to one decimal place.
// No ratings is a defined case: 0.0, not an error.
func (svc *Service) AverageRating(ctx context.Context, universityID int, category string) (float64, error) {
	avg, err := svc.repo.AverageRating(ctx, universityID, category)
	if err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return core.Round1(avg.Float64), nil
}

// AverageRatings returns rounded averages for every category, with 0.0 for
// categories nobody rated yet.
func (svc *Service) AverageRatings(ctx context.Context, universityID int) (map[string]float64, error) {
	avgs, err := svc.repo.AverageRatings(ctx, universityID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(Categories))
	for _, cat := range Categories {
		out[cat] = core.Round1(avgs[cat])
	}
	return out, nil
}

func (svc *Service) Reviews(ctx context.Context, universityID int) ([]Review, error) {
	if _, err := svc.repo.GetUniversityByID(ctx, universityID); err != nil {
		return nil, err
	}
	return svc.repo.ReviewsByUniversity(ctx, universityID)
}

func (svc *Service) CreateReview(ctx context.Context, nr NewReview) (Review, error) {
	if _, err := svc.repo.GetUniversityByID(ctx, nr.UniversityID); err != nil {
		return Review{}, err
	}
	review := Review{
		UniversityID: nr.UniversityID,
		UserID:       nr.UserID,
		Username:     nr.Username,
		Text:         nr.Text,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.CreateReview(ctx, review)
}

// PurgeReviews is the explicit administrative wipe. It replaces an old habit of
// clearing the review table on process start.
func (svc *Service) PurgeReviews(ctx context.Context) (int64, error) {
	return svc.repo.PurgeReviews(ctx)
}
