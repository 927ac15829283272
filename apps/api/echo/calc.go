package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/majorhelp/majorhelp/core"
	"github.com/majorhelp/majorhelp/core/calc"
)

type calcApi struct {
	svc *calc.Service
}

func registerCalcAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *calc.Service) {
	api := calcApi{svc: svc}

	g.GET("/calculate", api.calculate)
	g.GET("/calcs", api.queryCalcs, jwt)
	// one route, two verbs; anything else gets a 405 with an Allow header
	g.Any("/save-calc", api.saveCalc, jwt)
}

// Handlers

func (api *calcApi) calculate(ctx echo.Context) error {
	uniQuery := core.CleanString(ctx.QueryParam("university"))
	majorQuery := core.CleanString(ctx.QueryParam("major"))
	if uniQuery == "" || majorQuery == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "university and major parameters are required")
	}

	// the residency track is never guessed
	outState, err := strconv.ParseBool(ctx.QueryParam("outstate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "outstate parameter must be true or false")
	}

	estimate, err := api.svc.Calculate(ctx.Request().Context(), calc.Input{
		University: uniQuery,
		Major:      majorQuery,
		OutOfState: outState,
		Aid:        ctx.QueryParam("aid"),
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, estimate)
}

func (api *calcApi) queryCalcs(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	calcs, err := api.svc.List(ctx.Request().Context(), claims.Subject, ctx.QueryParam("query"))
	if err != nil {
		return errors.Wrap(err, "listing calculators")
	}
	return ctx.JSON(http.StatusOK, CalcsResponse{Calculators: calcs})
}

func (api *calcApi) saveCalc(ctx echo.Context) error {
	switch ctx.Request().Method {
	case http.MethodPost:
		return api.createCalc(ctx)
	case http.MethodDelete:
		return api.deleteCalc(ctx)
	default:
		ctx.Response().Header().Set(echo.HeaderAllow, "POST, DELETE")
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed")
	}
}

// createCalc expects a single-entry body {<name>: payload}.
func (api *calcApi) createCalc(ctx echo.Context) error {
	entries, err := decodeCalcBody(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	for name, raw := range entries {
		sc, err := calc.ParseSavedCalc(raw)
		if err != nil {
			return err
		}
		if err := api.svc.Save(ctx.Request().Context(), claims.Subject, name, sc); err != nil {
			return errors.Wrap(err, "saving calculator")
		}
	}
	return ctx.NoContent(http.StatusCreated)
}

// deleteCalc expects {<name>: anything}; the value is ignored.
func (api *calcApi) deleteCalc(ctx echo.Context) error {
	entries, err := decodeCalcBody(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	for name := range entries {
		if err := api.svc.Delete(ctx.Request().Context(), claims.Subject, name); err != nil {
			return err
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}

func decodeCalcBody(ctx echo.Context) (map[string]json.RawMessage, error) {
	var entries map[string]json.RawMessage
	if err := json.NewDecoder(ctx.Request().Body).Decode(&entries); err != nil {
		return nil, core.NewValidationError(errors.New("invalid payload format, expected an object"))
	}
	if len(entries) == 0 {
		return nil, core.NewValidationError(errors.New("at least one calculator entry is required"))
	}
	return entries, nil
}

type CalcsResponse struct {
	Calculators []calc.SavedCalc `json:"calculators"`
}
