package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/baseball_stats/internal/service"
	"github.com/Skotchmaster/baseball_stats/internal/transport"
	"github.com/Skotchmaster/baseball_stats/internal/util"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type PlayerHTTP struct {
	Svc *service.PlayerService
}

func (h *PlayerHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "player.list")

	q := transport.ListPlayersQuery{Page: 1, PageSize: util.DefaultPageSize}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return badRequest(l, "list_players_failed", "invalid query", err)
	}

	resp, err := h.Svc.List(ctx, q)
	if err != nil {
		return fail(c, l, "list_players_failed", "Player", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *PlayerHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "player.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("page_size"), util.DefaultPageSize)

	resp, err := h.Svc.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(c, l, "search_players_failed", "Player", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *PlayerHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "player.get")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "get_player_failed", "id is not a uuid", err)
	}

	p, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(c, l, "get_player_failed", "Player", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PlayerHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "player.create")

	var req transport.CreatePlayerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_player_failed", "invalid body", err)
	}

	p, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(c, l, "create_player_failed", "Player", err)
	}

	l.Info("create_player_success", "player_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *PlayerHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "player.update")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "update_player_failed", "id is not a uuid", err)
	}

	var req transport.PatchPlayerRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return badRequest(l, "update_player_failed", "invalid body", err)
	}

	p, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return fail(c, l, "update_player_failed", "Player", err)
	}

	l.Info("update_player_success", "player_id", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *PlayerHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "player.delete")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "delete_player_failed", "id is not a uuid", err)
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(c, l, "delete_player_failed", "Player", err)
	}

	l.Info("delete_player_success", "player_id", id)
	return c.NoContent(http.StatusNoContent)
}
