package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/Skotchmaster/baseball_stats/internal/service"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/labstack/echo/v4"
)

// MaxUploadBytes bounds a CSV upload held in memory.
const MaxUploadBytes = 16 << 20

type ImportHTTP struct {
	Svc *service.ImportService
}

func (h *ImportHTTP) ImportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "player.import_csv")

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(l, "import_csv_failed", "multipart field 'file' is required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(l, "import_csv_failed", "cannot read upload", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return badRequest(l, "import_csv_failed", "cannot read upload", err)
	}
	if len(content) > MaxUploadBytes {
		return badRequest(l, "import_csv_failed", "file too large", errors.New("upload exceeds limit"))
	}

	sum, err := h.Svc.ImportCSV(ctx, fh.Filename, content)
	if err != nil {
		return fail(c, l, "import_csv_failed", "file", err)
	}

	l.Info("import_csv_success", "created", sum.Created, "errors", sum.Errors)
	return c.JSON(http.StatusCreated, sum)
}

func (h *ImportHTTP) ImportFromAPI(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "player.import_api")

	job, err := h.Svc.StartAPIImport(ctx)
	if err != nil {
		return fail(c, l, "import_api_failed", "job", err)
	}

	l.Info("import_api_accepted", "job_id", job.ID)
	return c.JSON(http.StatusAccepted, echo.Map{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": "import started",
	})
}

func (h *ImportHTTP) Job(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "player.import_job")

	job, err := h.Svc.Job(ctx, c.Param("id"))
	if err != nil {
		return fail(c, l, "import_job_failed", "Job", err)
	}
	return c.JSON(http.StatusOK, job)
}
