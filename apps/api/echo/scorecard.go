package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/majorhelp/majorhelp/core/scorecard"
)

type scorecardApi struct {
	client *scorecard.Client
}

func registerScorecardAPI(g *echo.Group, client *scorecard.Client) {
	api := scorecardApi{client: client}
	g.GET("/schools/:name/scorecard", api.lookup)
}

func (api *scorecardApi) lookup(ctx echo.Context) error {
	school, err := api.client.Lookup(ctx.Request().Context(), ctx.Param("name"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, school)
}
