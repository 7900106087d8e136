package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/baseball_stats/internal/service"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AIHTTP struct {
	Svc *service.DescriptionService
}

func (h *AIHTTP) Generate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ai.generate_description")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "generate_description_failed", "id is not a uuid", err)
	}

	d, err := h.Svc.Generate(ctx, id)
	if err != nil {
		return fail(c, l, "generate_description_failed", "Player", err)
	}

	l.Info("generate_description_success", "player_id", id, "description_id", d.ID)
	return c.JSON(http.StatusCreated, d)
}

func (h *AIHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ai.list_descriptions")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "list_descriptions_failed", "id is not a uuid", err)
	}

	items, err := h.Svc.List(ctx, id)
	if err != nil {
		return fail(c, l, "list_descriptions_failed", "Player", err)
	}
	return c.JSON(http.StatusOK, items)
}
