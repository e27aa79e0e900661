package collection

import (
	"errors"

	"collection-engine/core/dispatch"
	"collection-engine/core/errs"
	"collection-engine/core/interaction"
	"collection-engine/core/logger"
	"collection-engine/core/snapshot"
	"collection-engine/core/utils"
	"collection-engine/feature/document"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Handler handles HTTP requests for collections.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the collection routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/diff", h.HandleDiff)

	group := app.Group("/collections")
	group.Post("/", h.HandleOpen)
	group.Get("/:id", h.HandleGet)
	group.Put("/:id", h.HandleReplace)
	group.Delete("/:id", h.HandleClose)
	group.Post("/:id/sections/:key/toggle", h.HandleToggle)
	group.Post("/:id/drag", h.HandleDrag)
	group.Post("/:id/near-end", h.HandleNearEnd)
	group.Post("/:id/refresh", h.HandleRefresh)
	group.Post("/:id/export", h.HandleExport)

	archive := app.Group("/archive")
	archive.Get("/", h.HandleArchived)
	archive.Delete("/*", h.HandleDeleteArchived)
}

// DragRequest is the body of a drag commit.
type DragRequest struct {
	From snapshot.Location `json:"from"`
	To   snapshot.Location `json:"to"`
}

// NearEndRequest is the body of a near-end report.
type NearEndRequest struct {
	Section int `json:"section"`
	Item    int `json:"item"`
	Count   int `json:"count"`
}

// DiffRequest is the body of a stateless diff.
type DiffRequest struct {
	Old document.Document `yaml:"old"`
	New document.Document `yaml:"new"`
}

// status maps service errors onto HTTP status codes.
func status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, errs.ErrUnknownKey):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidDocument), errors.Is(err, errs.ErrIndexOutOfRange):
		return fiber.StatusBadRequest
	case errors.Is(err, errs.ErrDuplicateKey):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrInvalidState), errors.Is(err, dispatch.ErrClosed),
		errors.Is(err, interaction.ErrSuperseded):
		return fiber.StatusConflict
	case errors.Is(err, ErrNoArchive):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	code := status(err)
	l := logger.WithRayID(h.service.logger, c)
	if code >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Debug(msg, zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func parseDocument(c *fiber.Ctx) (*document.Document, error) {
	d, err := document.Parse(c.Body())
	if err != nil {
		return nil, errors.Join(ErrInvalidDocument, err)
	}
	return d, nil
}

// HandleOpen opens a collection from the request body, or from the archive
// when ?archive= is set.
func (h *Handler) HandleOpen(c *fiber.Ctx) error {
	var (
		st  *State
		err error
	)
	if name := c.Query("archive"); name != "" {
		st, err = h.service.OpenArchived(c.Context(), name)
	} else {
		var d *document.Document
		if d, err = parseDocument(c); err == nil {
			st, err = h.service.Open(c.Context(), d)
		}
	}
	if err != nil {
		return h.fail(c, "Open collection failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

// HandleGet returns the current state of a collection.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	st, err := h.service.Get(c.Context(), c.Params("id"), utils.ToBool(c.Query("all")))
	if err != nil {
		return h.fail(c, "Get collection failed", err)
	}
	return c.JSON(st)
}

// HandleReplace shows new data and returns the applied script.
func (h *Handler) HandleReplace(c *fiber.Ctx) error {
	d, err := parseDocument(c)
	if err != nil {
		return h.fail(c, "Replace collection failed", err)
	}
	script, err := h.service.Replace(c.Context(), c.Params("id"), d)
	if err != nil {
		return h.fail(c, "Replace collection failed", err)
	}
	return c.JSON(fiber.Map{
		"script":  script,
		"summary": script.Summary(),
	})
}

// HandleClose closes a collection.
func (h *Handler) HandleClose(c *fiber.Ctx) error {
	if err := h.service.Close(c.Params("id")); err != nil {
		return h.fail(c, "Close collection failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleToggle toggles a section.
func (h *Handler) HandleToggle(c *fiber.Ctx) error {
	state, err := snapshot.ParseExpansion(c.Query("state"))
	if err != nil {
		return h.fail(c, "Toggle section failed", errors.Join(ErrInvalidDocument, err))
	}
	script, err := h.service.Toggle(c.Context(), c.Params("id"), c.Params("key"), state)
	if err != nil {
		return h.fail(c, "Toggle section failed", err)
	}
	return c.JSON(fiber.Map{
		"script": script,
	})
}

// HandleDrag commits a drag.
func (h *Handler) HandleDrag(c *fiber.Ctx) error {
	var req DragRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "Drag failed", errors.Join(ErrInvalidDocument, err))
	}
	res, err := h.service.Drag(c.Context(), c.Params("id"), req.From, req.To)
	if err != nil {
		return h.fail(c, "Drag failed", err)
	}
	return c.JSON(res)
}

// HandleNearEnd reports a visible item near the end of the content.
func (h *Handler) HandleNearEnd(c *fiber.Ctx) error {
	var req NearEndRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "Near-end failed", errors.Join(ErrInvalidDocument, err))
	}
	started, err := h.service.NearEnd(c.Context(), c.Params("id"), req.Section, req.Item, req.Count)
	if err != nil {
		return h.fail(c, "Near-end failed", err)
	}
	return c.JSON(fiber.Map{
		"started": started,
	})
}

// HandleRefresh reloads a collection from the archive.
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	started, err := h.service.Refresh(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Refresh failed", err)
	}
	return c.JSON(fiber.Map{
		"started": started,
	})
}

// HandleExport archives the current data of a collection.
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	object, err := h.service.Export(c.Context(), c.Params("id"), c.Query("name"))
	if err != nil {
		return h.fail(c, "Export failed", err)
	}
	return c.JSON(fiber.Map{
		"object": object,
	})
}

// HandleArchived lists the archived documents.
func (h *Handler) HandleArchived(c *fiber.Ctx) error {
	names, err := h.service.Archived(c.Context())
	if err != nil {
		return h.fail(c, "List archive failed", err)
	}
	return c.JSON(fiber.Map{
		"documents": names,
	})
}

// HandleDeleteArchived deletes one archived document.
func (h *Handler) HandleDeleteArchived(c *fiber.Ctx) error {
	name := c.Params("*")
	if _, err := document.ObjectName(name); err != nil {
		return h.fail(c, "Delete archived document failed", errors.Join(ErrInvalidDocument, err))
	}
	if err := h.service.DeleteArchived(c.Context(), name); err != nil {
		return h.fail(c, "Delete archived document failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDiff diffs two documents.
func (h *Handler) HandleDiff(c *fiber.Ctx) error {
	var req DiffRequest
	if err := yaml.Unmarshal(c.Body(), &req); err != nil {
		return h.fail(c, "Diff failed", errors.Join(ErrInvalidDocument, err))
	}
	script, err := h.service.Diff(&req.Old, &req.New)
	if err != nil {
		return h.fail(c, "Diff failed", err)
	}
	return c.JSON(fiber.Map{
		"script":  script,
		"summary": script.Summary(),
	})
}
