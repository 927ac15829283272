package university_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/majorhelp/majorhelp/core/university"
	dummydb "github.com/majorhelp/majorhelp/storage/database/dummy"
)

func setup(t *testing.T) *university.Service {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed, %v", err)
	}
	return university.NewService(dummydb.NewUniversityRepository(db))
}

func createUniversity(t *testing.T, svc *university.Service, name string, fees int) university.University {
	t.Helper()

	uni, err := svc.Create(context.Background(), university.NewUniversity{
		Name:                     name,
		Location:                 "Columbia, SC",
		IsPublic:                 true,
		InStateBaseMinTuition:    5000,
		InStateBaseMaxTuition:    7000,
		OutOfStateBaseMinTuition: 15000,
		OutOfStateBaseMaxTuition: 21000,
		Fees:                     fees,
	})
	if err != nil {
		t.Fatalf("createUniversity() failed, %v", err)
	}
	return uni
}

func TestService_Resolve(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	createUniversity(t, svc, "University of South Carolina", 400)
	createUniversity(t, svc, "University of South Carolina Upstate", 300)
	createUniversity(t, svc, "Clemson University", 500)

	tests := []struct {
		name    string
		query   string
		want    string
		wantErr error
	}{
		{name: "exact match wins", query: "university of south carolina", want: "University of South Carolina"},
		{name: "substring match", query: "upstate", want: "University of South Carolina Upstate"},
		{name: "first substring match ordered by name", query: "university", want: "Clemson University"},
		{name: "whitespace trimmed", query: "  clemson university  ", want: "Clemson University"},
		{name: "no match", query: "harvard", wantErr: university.ErrUniversityNotFound},
		{name: "empty query", query: "", wantErr: university.ErrUniversityNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uni, err := svc.Resolve(ctx, tt.query)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, uni.Name)
		})
	}
}

func TestService_Create_slugs(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	uni := createUniversity(t, svc, "University of South Carolina", 400)
	assert.Equal(t, "university-of-south-carolina", uni.Slug)

	// duplicate name yields the same slug and is rejected
	_, err := svc.Create(ctx, university.NewUniversity{
		Name:     "University of South Carolina",
		Location: "Columbia, SC",
	})
	assert.Equal(t, university.ErrSlugExists, err)

	major, err := svc.CreateMajor(ctx, uni.ID, university.NewMajor{
		Name:                 "Computer Information Systems",
		Department:           "Engineering and Technology",
		InStateMinTuition:    200,
		InStateMaxTuition:    1200,
		OutOfStateMinTuition: 500,
		OutOfStateMaxTuition: 2500,
		Fees:                 100,
	})
	assert.NoError(t, err)
	assert.Equal(t, "university-of-south-carolina/computer-information-systems", major.Slug)
}

func TestService_Update_tuitionInvariant(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	uni := createUniversity(t, svc, "Clemson University", 500)

	// lowering max below the existing min must fail even though max alone looks fine
	badMax := 4000
	_, err := svc.Update(ctx, uni.ID, university.UpdateUniversity{InStateBaseMaxTuition: &badMax})
	assert.Error(t, err)

	newMax := 8000
	updated, err := svc.Update(ctx, uni.ID, university.UpdateUniversity{InStateBaseMaxTuition: &newMax})
	assert.NoError(t, err)
	assert.Equal(t, 8000, updated.InStateBaseMaxTuition)
}

// Ratings in one category never leak into another category's average.
func TestService_AverageRating_isolation(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	uni := createUniversity(t, svc, "University of South Carolina", 400)

	submit := func(userID, category string, value float64) {
		_, err := svc.SubmitRating(ctx, university.NewRating{
			UniversityID: uni.ID,
			UserID:       userID,
			Category:     category,
			Value:        value,
		})
		if err != nil {
			t.Fatalf("SubmitRating() failed, %v", err)
		}
	}

	submit("user-1", university.CategoryCampus, 4)
	submit("user-2", university.CategoryCampus, 5)
	submit("user-3", university.CategorySafety, 3)

	campus, err := svc.AverageRating(ctx, uni.ID, university.CategoryCampus)
	assert.NoError(t, err)
	assert.Equal(t, 4.5, campus)

	safety, err := svc.AverageRating(ctx, uni.ID, university.CategorySafety)
	assert.NoError(t, err)
	assert.Equal(t, 3.0, safety)

	// unrated category is 0.0, not an error
	dining, err := svc.AverageRating(ctx, uni.ID, university.CategoryDining)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, dining)
}

func TestService_SubmitRating_upsert(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	uni := createUniversity(t, svc, "Clemson University", 500)

	for _, value := range []float64{2, 5} {
		_, err := svc.SubmitRating(ctx, university.NewRating{
			UniversityID: uni.ID,
			UserID:       "user-1",
			Category:     university.CategoryDorm,
			Value:        value,
		})
		assert.NoError(t, err)
	}

	// second submission replaced the first instead of appending
	avg, err := svc.AverageRating(ctx, uni.ID, university.CategoryDorm)
	assert.NoError(t, err)
	assert.Equal(t, 5.0, avg)
}

func TestService_AverageRating_rounding(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	uni := createUniversity(t, svc, "Clemson University", 500)

	for i, value := range []float64{3, 3, 4} { // mean 3.333...
		_, err := svc.SubmitRating(ctx, university.NewRating{
			UniversityID: uni.ID,
			UserID:       "user-" + string(rune('a'+i)),
			Category:     university.CategoryProfessor,
			Value:        value,
		})
		assert.NoError(t, err)
	}

	avg, err := svc.AverageRating(ctx, uni.ID, university.CategoryProfessor)
	assert.NoError(t, err)
	assert.Equal(t, 3.3, avg)
}

func TestService_Reviews(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	uni := createUniversity(t, svc, "University of South Carolina", 400)

	_, err := svc.CreateReview(ctx, university.NewReview{
		UniversityID: uni.ID,
		UserID:       "user-1",
		Username:     "gamecock",
		Text:         "Great campus life.",
	})
	assert.NoError(t, err)

	reviews, err := svc.Reviews(ctx, uni.ID)
	assert.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, "gamecock", reviews[0].Username)

	n, err := svc.PurgeReviews(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reviews, err = svc.Reviews(ctx, uni.ID)
	assert.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"University of South Carolina", "university-of-south-carolina"},
		{"  Texas A&M  ", "texas-a-m"},
		{"École 42", "cole-42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, university.Slugify(tt.in))
	}
}
