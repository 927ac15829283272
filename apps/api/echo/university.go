package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/majorhelp/majorhelp/core"
	"github.com/majorhelp/majorhelp/core/university"
	"github.com/majorhelp/majorhelp/core/user"
)

type universityApi struct {
	svc      *university.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerUniversityAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *university.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := universityApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	ug := g.Group("/universities")
	ug.GET("/search", api.search)
	ug.GET("/:id", api.retrieve)
	ug.GET("/:id/reviews", api.queryReviews)

	g.GET("/majors", api.queryMajors)
	g.GET("/aids", api.queryAids)

	// authed endpoints
	ug.POST("/:id/ratings", api.submitRating, jwt)
	ug.POST("/:id/reviews", api.createReview, jwt)

	// admin endpoints
	ug.POST("", api.create, jwt, adminMiddleware())
	ug.PUT("/:id", api.update, jwt, adminMiddleware())
	ug.POST("/:id/majors", api.createMajor, jwt, adminMiddleware())
	g.POST("/aids", api.createAid, jwt, adminMiddleware())
	g.DELETE("/reviews", api.purgeReviews, jwt, adminMiddleware())
}

// Handlers

// search never errors out through the error handler: missing or unmatched
// queries still carry an empty "universities" array for the autocomplete UI.
func (api *universityApi) search(ctx echo.Context) error {
	query := core.CleanString(ctx.QueryParam("query"))
	if query == "" {
		return ctx.JSON(http.StatusBadRequest, SearchResponse{Universities: []UniversitySummary{}})
	}

	unis, err := api.svc.Search(ctx.Request().Context(), query)
	if err != nil {
		return errors.Wrap(err, "searching universities")
	}
	if len(unis) == 0 {
		return ctx.JSON(http.StatusNotFound, SearchResponse{Universities: []UniversitySummary{}})
	}

	summaries := make([]UniversitySummary, len(unis))
	for i, uni := range unis {
		summaries[i] = UniversitySummary{Name: uni.Name, Location: uni.Location}
	}
	return ctx.JSON(http.StatusOK, SearchResponse{Universities: summaries})
}

func (api *universityApi) retrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	uni, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	avgs, err := api.svc.AverageRatings(ctx.Request().Context(), uni.ID)
	if err != nil {
		return errors.Wrap(err, "averaging ratings")
	}
	return ctx.JSON(http.StatusOK, UniversityDetailResponse{University: uni, AvgRatings: avgs})
}

func (api *universityApi) queryMajors(ctx echo.Context) error {
	uniQuery := core.CleanString(ctx.QueryParam("university"))
	if uniQuery == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "university parameter is required")
	}

	majors, err := api.svc.Majors(ctx.Request().Context(), uniQuery, ctx.QueryParam("department"))
	if err != nil {
		return err
	}

	summaries := make([]MajorSummary, len(majors))
	for i, major := range majors {
		summaries[i] = MajorSummary{Name: major.Name, Department: major.Department}
	}
	return ctx.JSON(http.StatusOK, MajorsResponse{Majors: summaries})
}

func (api *universityApi) queryAids(ctx echo.Context) error {
	uniQuery := core.CleanString(ctx.QueryParam("university"))
	if uniQuery == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "university parameter is required")
	}

	aids, err := api.svc.Aids(ctx.Request().Context(), uniQuery)
	if err != nil {
		return err
	}
	if aids == nil {
		aids = []university.FinancialAid{}
	}
	return ctx.JSON(http.StatusOK, AidsResponse{Aids: aids})
}

// submitRating handles the rating form: both outcomes redirect back to the
// university page, carrying a user-facing msg parameter on invalid input.
func (api *universityApi) submitRating(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	uniURL := fmt.Sprintf("/v1/universities/%d", id)
	redirectInvalid := func(msg string) error {
		return ctx.Redirect(http.StatusSeeOther, uniURL+"?msg="+url.QueryEscape(msg))
	}

	value, err := strconv.ParseFloat(ctx.FormValue("rating"), 64)
	if err != nil {
		return redirectInvalid("rating must be a number between 1 and 5")
	}
	data := university.NewRating{
		UniversityID: id,
		UserID:       claims.Subject,
		Category:     ctx.FormValue("category"),
		Value:        value,
	}
	if err := data.Validate(api.validate); err != nil {
		return redirectInvalid("invalid rating submission")
	}

	if _, err := api.svc.SubmitRating(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, uniURL)
}

func (api *universityApi) queryReviews(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	reviews, err := api.svc.Reviews(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if reviews == nil {
		reviews = []university.Review{}
	}
	return ctx.JSON(http.StatusOK, ReviewsResponse{Reviews: reviews})
}

func (api *universityApi) createReview(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data university.NewReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReview")
	}
	data.UniversityID = id
	data.UserID = usr.ID
	data.Username = usr.Username
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	review, err := api.svc.CreateReview(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating review")
	}
	return ctx.JSON(http.StatusCreated, review)
}

func (api *universityApi) create(ctx echo.Context) error {
	var data university.NewUniversity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUniversity")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	uni, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == university.ErrSlugExists {
			return core.NewValidationError(nil, core.FieldError{Field: "name", Error: err.Error()})
		}
		return errors.Wrap(err, "creating university")
	}
	return ctx.JSON(http.StatusCreated, uni)
}

func (api *universityApi) update(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data university.UpdateUniversity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUniversity")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	uni, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, uni)
}

func (api *universityApi) createMajor(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data university.NewMajor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMajor")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	major, err := api.svc.CreateMajor(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == university.ErrSlugExists {
			return core.NewValidationError(nil, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, major)
}

func (api *universityApi) createAid(ctx echo.Context) error {
	var data university.NewAid
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAid")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	aid, err := api.svc.CreateAid(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating financial aid")
	}
	return ctx.JSON(http.StatusCreated, aid)
}

func (api *universityApi) purgeReviews(ctx echo.Context) error {
	n, err := api.svc.PurgeReviews(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "purging reviews")
	}
	return ctx.JSON(http.StatusOK, PurgeResponse{Deleted: n})
}

type (
	UniversitySummary struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	}

	SearchResponse struct {
		Universities []UniversitySummary `json:"universities"`
	}

	UniversityDetailResponse struct {
		university.University
		AvgRatings map[string]float64 `json:"avg_ratings"`
	}

	MajorSummary struct {
		Name       string `json:"name"`
		Department string `json:"department"`
	}

	MajorsResponse struct {
		Majors []MajorSummary `json:"majors"`
	}

	AidsResponse struct {
		Aids []university.FinancialAid `json:"aids"`
	}

	ReviewsResponse struct {
		Reviews []university.Review `json:"reviews"`
	}

	PurgeResponse struct {
		Deleted int64 `json:"deleted"`
	}
)
