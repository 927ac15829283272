package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/majorhelp/majorhelp/core/university"
)

var (
	uniPKCount    int
	majorPKCount  int
	aidPKCount    int
	ratingPKCount int
	reviewPKCount int
)

type universityRepository struct {
	db *universityTable
}

var _ university.Repository = (*universityRepository)(nil) // interface compliance check

func NewUniversityRepository(db *DB) university.Repository {
	return &universityRepository{db: db.university}
}

func (repo *universityRepository) queryUnis() []university.University {
	unis := make([]university.University, 0, len(repo.db.unis))
	for _, u := range repo.db.unis {
		unis = append(unis, *u)
	}
	sort.Slice(unis, func(i, j int) bool { return unis[i].Name < unis[j].Name })
	return unis
}

func (repo *universityRepository) queryMajors(universityID int) []university.Major {
	majors := make([]university.Major, 0)
	for _, m := range repo.db.majors {
		if m.UniversityID == universityID {
			majors = append(majors, *m)
		}
	}
	sort.Slice(majors, func(i, j int) bool { return majors[i].Name < majors[j].Name })
	return majors
}

func (repo *universityRepository) SearchUniversities(_ context.Context, prefix string) ([]university.University, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	prefix = strings.ToLower(prefix)
	matches := make([]university.University, 0)
	for _, uni := range repo.queryUnis() {
		if strings.HasPrefix(strings.ToLower(uni.Name), prefix) {
			matches = append(matches, uni)
		}
	}
	return matches, nil
}

func (repo *universityRepository) GetUniversityByID(_ context.Context, id int) (university.University, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if uni, ok := repo.db.unis[id]; ok {
		return *uni, nil
	}
	return university.University{}, university.ErrUniversityNotFound
}

func (repo *universityRepository) GetUniversityByName(_ context.Context, name string) (university.University, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, uni := range repo.queryUnis() {
		if strings.EqualFold(uni.Name, name) {
			return uni, nil
		}
	}
	return university.University{}, university.ErrUniversityNotFound
}

func (repo *universityRepository) FirstUniversityMatching(_ context.Context, substr string) (university.University, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	substr = strings.ToLower(substr)
	for _, uni := range repo.queryUnis() {
		if strings.Contains(strings.ToLower(uni.Name), substr) {
			return uni, nil
		}
	}
	return university.University{}, university.ErrUniversityNotFound
}

func (repo *universityRepository) CreateUniversity(_ context.Context, uni university.University) (university.University, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.unis {
		if existing.Slug == uni.Slug {
			return university.University{}, university.ErrSlugExists
		}
	}
	uniPKCount++
	uni.ID = uniPKCount
	repo.db.unis[uni.ID] = &uni
	return uni, nil
}

func (repo *universityRepository) UpdateUniversity(_ context.Context, uni university.University) (university.University, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.unis[uni.ID]; !ok {
		return university.University{}, university.ErrUniversityNotFound
	}
	repo.db.unis[uni.ID] = &uni
	return uni, nil
}

func (repo *universityRepository) MajorsByUniversity(_ context.Context, universityID int, department string) ([]university.Major, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	majors := repo.queryMajors(universityID)
	if department == "" {
		return majors, nil
	}
	filtered := make([]university.Major, 0, len(majors))
	for _, m := range majors {
		if m.Department == department {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

func (repo *universityRepository) GetMajorByName(_ context.Context, universityID int, name string) (university.Major, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, major := range repo.queryMajors(universityID) {
		if strings.EqualFold(major.Name, name) {
			return major, nil
		}
	}
	return university.Major{}, university.ErrMajorNotFound
}

func (repo *universityRepository) FirstMajorMatching(_ context.Context, universityID int, substr string) (university.Major, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	substr = strings.ToLower(substr)
	for _, major := range repo.queryMajors(universityID) {
		if strings.Contains(strings.ToLower(major.Name), substr) {
			return major, nil
		}
	}
	return university.Major{}, university.ErrMajorNotFound
}

func (repo *universityRepository) CreateMajor(_ context.Context, major university.Major) (university.Major, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.majors {
		if existing.Slug == major.Slug {
			return university.Major{}, university.ErrSlugExists
		}
	}
	majorPKCount++
	major.ID = majorPKCount
	repo.db.majors[major.ID] = &major
	return major, nil
}

func (repo *universityRepository) AidsByUniversity(_ context.Context, universityID int) ([]university.FinancialAid, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	aids := make([]university.FinancialAid, 0)
	for aidID, uniIDs := range repo.db.aidUnis {
		for _, id := range uniIDs {
			if id == universityID {
				aids = append(aids, *repo.db.aids[aidID])
				break
			}
		}
	}
	sort.Slice(aids, func(i, j int) bool { return aids[i].Name < aids[j].Name })
	return aids, nil
}

func (repo *universityRepository) GetAidByName(_ context.Context, name string) (university.FinancialAid, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, aid := range repo.db.aids {
		if aid.Name == name {
			return *aid, nil
		}
	}
	return university.FinancialAid{}, university.ErrAidNotFound
}

func (repo *universityRepository) CreateAid(_ context.Context, aid university.FinancialAid, universityIDs []int) (university.FinancialAid, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	aidPKCount++
	aid.ID = aidPKCount
	repo.db.aids[aid.ID] = &aid
	repo.db.aidUnis[aid.ID] = universityIDs
	return aid, nil
}

func (repo *universityRepository) UpsertRating(_ context.Context, rating university.Rating) (university.Rating, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.ratings {
		if existing.UniversityID == rating.UniversityID &&
			existing.Category == rating.Category &&
			existing.UserID == rating.UserID {
			existing.Value = rating.Value
			return *existing, nil
		}
	}
	ratingPKCount++
	rating.ID = ratingPKCount
	repo.db.ratings[rating.ID] = &rating
	return rating, nil
}

func (repo *universityRepository) AverageRating(_ context.Context, universityID int, category string) (null.Float64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var sum float64
	var count int
	for _, r := range repo.db.ratings {
		if r.UniversityID == universityID && r.Category == category {
			sum += r.Value
			count++
		}
	}
	if count == 0 {
		return null.Float64{}, nil
	}
	return null.Float64From(sum / float64(count)), nil
}

func (repo *universityRepository) AverageRatings(_ context.Context, universityID int) (map[string]float64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range repo.db.ratings {
		if r.UniversityID == universityID {
			sums[r.Category] += r.Value
			counts[r.Category]++
		}
	}
	avgs := make(map[string]float64, len(sums))
	for cat, sum := range sums {
		avgs[cat] = sum / float64(counts[cat])
	}
	return avgs, nil
}

func (repo *universityRepository) ReviewsByUniversity(_ context.Context, universityID int) ([]university.Review, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reviews := make([]university.Review, 0)
	for _, r := range repo.db.reviews {
		if r.UniversityID == universityID {
			reviews = append(reviews, *r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}

func (repo *universityRepository) CreateReview(_ context.Context, review university.Review) (university.Review, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	reviewPKCount++
	review.ID = reviewPKCount
	repo.db.reviews[review.ID] = &review
	return review, nil
}

func (repo *universityRepository) PurgeReviews(_ context.Context) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n := int64(len(repo.db.reviews))
	repo.db.reviews = make(map[int]*university.Review)
	return n, nil
}
