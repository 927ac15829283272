package university

import (
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/majorhelp/majorhelp/core"
)

// Departments a Major can belong to. Fixed set; anything else is rejected at write time.
var Departments = []string{
	"Humanities and Social Sciences",
	"Natural Sciences and Mathematics",
	"Business and Economics",
	"Education",
	"Engineering and Technology",
	"Health Sciences",
	"Arts and Design",
	"Agriculture and Environmental Studies",
	"Communication and Media",
	"Law and Criminal Justice",
}

// Rating categories. One live rating per (university, category, user).
const (
	CategoryCampus    = "campus"
	CategoryAthletics = "athletics"
	CategorySafety    = "safety"
	CategorySocial    = "social"
	CategoryProfessor = "professor"
	CategoryDorm      = "dorm"
	CategoryDining    = "dining"
)

var Categories = []string{
	CategoryCampus,
	CategoryAthletics,
	CategorySafety,
	CategorySocial,
	CategoryProfessor,
	CategoryDorm,
	CategoryDining,
}

type University struct {
	ID                       int       `json:"id"`
	Name                     string    `json:"name"`
	Slug                     string    `json:"slug"`
	Location                 string    `json:"location"` // City and State
	IsPublic                 bool      `json:"is_public"`
	About                    string    `json:"about"`
	TotalUndergradStudents   int       `json:"total_undergrad_students"`
	TotalGradStudents        int       `json:"total_grad_students"`
	GraduationRate           float64   `json:"graduation_rate"`
	InStateBaseMinTuition    int       `json:"in_state_base_min_tuition"`
	InStateBaseMaxTuition    int       `json:"in_state_base_max_tuition"`
	OutOfStateBaseMinTuition int       `json:"out_of_state_base_min_tuition"`
	OutOfStateBaseMaxTuition int       `json:"out_of_state_base_max_tuition"`
	Fees                     int       `json:"fees"`
	CreatedAt                time.Time `json:"created_at"` // UTC
	UpdatedAt                time.Time `json:"updated_at"` // UTC
}

// BaseTuition returns the university-wide min/max figures for the given residency track.
func (u University) BaseTuition(outOfState bool) (min, max int) {
	if outOfState {
		return u.OutOfStateBaseMinTuition, u.OutOfStateBaseMaxTuition
	}
	return u.InStateBaseMinTuition, u.InStateBaseMaxTuition
}

type Major struct {
	ID                   int       `json:"id"`
	UniversityID         int       `json:"university_id"`
	Name                 string    `json:"name"`
	Slug                 string    `json:"slug"` // scoped: "university-slug/major-slug"
	Department           string    `json:"department"`
	InStateMinTuition    int       `json:"in_state_min_tuition"`
	InStateMaxTuition    int       `json:"in_state_max_tuition"`
	OutOfStateMinTuition int       `json:"out_of_state_min_tuition"`
	OutOfStateMaxTuition int       `json:"out_of_state_max_tuition"`
	Fees                 int       `json:"fees"`
	CreatedAt            time.Time `json:"created_at"` // UTC
	UpdatedAt            time.Time `json:"updated_at"` // UTC
}

// Tuition returns the major-specific min/max add-ons for the given residency track.
func (m Major) Tuition(outOfState bool) (min, max int) {
	if outOfState {
		return m.OutOfStateMinTuition, m.OutOfStateMaxTuition
	}
	return m.InStateMinTuition, m.InStateMaxTuition
}

type FinancialAid struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Amount   int    `json:"amount"`
}

type Rating struct {
	ID           int     `json:"id"`
	UniversityID int     `json:"university_id"`
	UserID       string  `json:"user_id"`
	Category     string  `json:"category"`
	Value        float64 `json:"value"`
}

type Review struct {
	ID           int       `json:"id"`
	UniversityID int       `json:"university_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// NewUniversity contains information needed to create a new University.
// Write-time invariant: max tuition >= min tuition on both residency tracks.
type NewUniversity struct {
	Name                     string  `json:"name" validate:"required"`
	Location                 string  `json:"location" validate:"required"`
	IsPublic                 bool    `json:"is_public"`
	About                    string  `json:"about"`
	TotalUndergradStudents   int     `json:"total_undergrad_students" validate:"gte=0"`
	TotalGradStudents        int     `json:"total_grad_students" validate:"gte=0"`
	GraduationRate           float64 `json:"graduation_rate" validate:"gte=0,lte=100"`
	InStateBaseMinTuition    int     `json:"in_state_base_min_tuition" validate:"gte=0"`
	InStateBaseMaxTuition    int     `json:"in_state_base_max_tuition" validate:"gtefield=InStateBaseMinTuition"`
	OutOfStateBaseMinTuition int     `json:"out_of_state_base_min_tuition" validate:"gte=0"`
	OutOfStateBaseMaxTuition int     `json:"out_of_state_base_max_tuition" validate:"gtefield=OutOfStateBaseMinTuition"`
	Fees                     int     `json:"fees" validate:"gte=0"`
}

func (nu *NewUniversity) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Location = core.CleanString(nu.Location)
	return validate.Struct(nu)
}

// UpdateUniversity defines what information may be provided to modify an existing University.
type UpdateUniversity struct {
	Name                     string   `json:"name"`
	Location                 string   `json:"location"`
	IsPublic                 *bool    `json:"is_public"`
	About                    *string  `json:"about"`
	TotalUndergradStudents   *int     `json:"total_undergrad_students" validate:"omitempty,gte=0"`
	TotalGradStudents        *int     `json:"total_grad_students" validate:"omitempty,gte=0"`
	GraduationRate           *float64 `json:"graduation_rate" validate:"omitempty,gte=0,lte=100"`
	InStateBaseMinTuition    *int     `json:"in_state_base_min_tuition" validate:"omitempty,gte=0"`
	InStateBaseMaxTuition    *int     `json:"in_state_base_max_tuition"`
	OutOfStateBaseMinTuition *int     `json:"out_of_state_base_min_tuition" validate:"omitempty,gte=0"`
	OutOfStateBaseMaxTuition *int     `json:"out_of_state_base_max_tuition"`
	Fees                     *int     `json:"fees" validate:"omitempty,gte=0"`
}

func (uu *UpdateUniversity) Validate(validate *validator.Validate) error {
	uu.Name = core.CleanString(uu.Name)
	uu.Location = core.CleanString(uu.Location)
	return validate.Struct(uu)
}

// NewMajor contains information needed to create a new Major under a University.
type NewMajor struct {
	Name                 string `json:"name" validate:"required"`
	Department           string `json:"department" validate:"required,department"`
	InStateMinTuition    int    `json:"in_state_min_tuition" validate:"gte=0"`
	InStateMaxTuition    int    `json:"in_state_max_tuition" validate:"gtefield=InStateMinTuition"`
	OutOfStateMinTuition int    `json:"out_of_state_min_tuition" validate:"gte=0"`
	OutOfStateMaxTuition int    `json:"out_of_state_max_tuition" validate:"gtefield=OutOfStateMinTuition"`
	Fees                 int    `json:"fees" validate:"gte=0"`
}

func (nm *NewMajor) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Department = core.CleanString(nm.Department)
	return validate.Struct(nm)
}

// NewAid contains information needed to create a new FinancialAid.
type NewAid struct {
	Name          string `json:"name" validate:"required"`
	Location      string `json:"location"`
	Amount        int    `json:"amount" validate:"gte=0"`
	UniversityIDs []int  `json:"university_ids"` // applicable universities
}

func (na *NewAid) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Location = core.CleanString(na.Location)
	return validate.Struct(na)
}

// NewRating contains one user's rating of a university in a single category.
// Out-of-range values are rejected, not clamped.
type NewRating struct {
	UniversityID int     `json:"university_id" validate:"required"`
	UserID       string  `json:"user_id" validate:"required"`
	Category     string  `json:"category" validate:"required,ratingcategory"`
	Value        float64 `json:"rating" validate:"gte=1,lte=5"`
}

func (nr *NewRating) Validate(validate *validator.Validate) error {
	nr.Category = core.CleanString(nr.Category, true /* lower */)
	return validate.Struct(nr)
}

// NewReview contains information needed to create a new Review.
type NewReview struct {
	UniversityID int    `json:"university_id" validate:"required"`
	UserID       string `json:"user_id" validate:"required"`
	Username     string `json:"username"`
	Text         string `json:"text" validate:"required,max=2000"`
}

func (nr *NewReview) Validate(validate *validator.Validate) error {
	nr.Text = core.CleanString(nr.Text)
	return validate.Struct(nr)
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowers s and replaces every run of non-alphanumeric characters with a hyphen.
func Slugify(s string) string {
	s = slugInvalidChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// InitValidators registers this package's custom validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(departmentTag, departmentValidation)
	core.RegisterCustomTranslation(validate, translator, departmentTag, departmentText)

	_ = validate.RegisterValidation(ratingCategoryTag, ratingCategoryValidation)
	core.RegisterCustomTranslation(validate, translator, ratingCategoryTag, ratingCategoryText)
}

var (
	departmentTag  = "department"
	departmentText = "invalid department"

	ratingCategoryTag  = "ratingcategory"
	ratingCategoryText = "invalid rating category"
)

func departmentValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, d := range Departments {
		if d == val {
			return true
		}
	}
	return false
}

func ratingCategoryValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, c := range Categories {
		if c == val {
			return true
		}
	}
	return false
}
