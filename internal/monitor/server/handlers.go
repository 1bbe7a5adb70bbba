package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/gofiber/fiber/v2"

	"github.com/shapeflow/monitor/internal/monitor/session"
	"github.com/shapeflow/monitor/internal/monitor/store"
	"github.com/shapeflow/monitor/internal/monitor/views"
)

type handler struct {
	sess *session.Session
}

func newHandler(sess *session.Session) *handler {
	return &handler{sess: sess}
}

func (h *handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *handler) GetLogs(c *fiber.Ctx) error {
	snap := h.sess.Snapshot()
	return c.JSON(fiber.Map{
		"logs":     snap.Filters.UploadedLogs,
		"selected": snap.SelectedLog,
	})
}

type switchRequest struct {
	Name string `json:"name"`
}

func (h *handler) PostSwitchLog(c *fiber.Ctx) error {
	var req switchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.sess.SwitchLog(c.UserContext(), req.Name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("log %q not found", req.Name))
		}
		return fiber.NewError(fiber.StatusBadGateway, "log source unavailable")
	}

	snap := h.sess.Snapshot()
	return c.JSON(fiber.Map{
		"selected": snap.SelectedLog,
		"rows":     len(snap.Table),
		"alerts":   len(snap.Alerts),
	})
}

type uploadRequest struct {
	FileName string         `json:"fileName"`
	Data     []store.Record `json:"data"`
}

func (h *handler) PostUploadLog(c *fiber.Ctx) error {
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.sess.UploadLog(c.UserContext(), req.FileName, req.Data); err != nil {
		if errors.Is(err, session.ErrInvalidUpload) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, "could not store uploaded log")
	}
	return c.JSON(fiber.Map{"uploaded": req.FileName, "rows": len(req.Data)})
}

func (h *handler) GetFilters(c *fiber.Ctx) error {
	return c.JSON(h.sess.Snapshot().Filters)
}

func (h *handler) GetAlerts(c *fiber.Ctx) error {
	snap := h.sess.Snapshot()
	return c.JSON(fiber.Map{
		"alerts": snap.Alerts,
		"unread": snap.Alerts.UnreadCount(),
	})
}

func (h *handler) GetUnreadAlerts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"unread": h.sess.UnreadAlerts()})
}

func (h *handler) PostAcknowledgeAlerts(c *fiber.Ctx) error {
	h.sess.AcknowledgeAlerts()
	return c.JSON(fiber.Map{"unread": h.sess.UnreadAlerts()})
}

func (h *handler) GetGraph(c *fiber.Ctx) error {
	graphType := c.Params("type")
	f, err := filterFromQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	data, err := h.sess.GraphData(graphType, f)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.JSON(fiber.Map{"graph": graphType, "data": data})
}

func (h *handler) GetTable(c *fiber.Ctx) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snap := h.sess.Snapshot()
	rows := views.FilterTable(snap.Table, f)
	return c.JSON(fiber.Map{
		"selected": snap.SelectedLog,
		"rows":     rows,
		"count":    len(rows),
	})
}

func (h *handler) GetBounds(c *fiber.Ctx) error {
	snap := h.sess.Snapshot()
	return c.JSON(fiber.Map{
		"min_date":        snap.MinDate,
		"max_date":        snap.MaxDate,
		"selected_log":    snap.SelectedLog,
		"missing_default": snap.MissingDefault,
	})
}

// filterFromQuery reads the shared filter query params: comma-separated
// document/user/description selections and a from/to time range.
func filterFromQuery(c *fiber.Ctx) (views.Filter, error) {
	f := views.Filter{
		Documents:    splitQuery(c.Query("document")),
		Users:        splitQuery(c.Query("user")),
		Descriptions: splitQuery(c.Query("description")),
	}

	if raw := c.Query("from"); raw != "" {
		t, err := dateparse.ParseAny(raw)
		if err != nil {
			return f, fmt.Errorf("invalid from time %q", raw)
		}
		f.Start = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := dateparse.ParseAny(raw)
		if err != nil {
			return f, fmt.Errorf("invalid to time %q", raw)
		}
		f.End = t
	}
	return f, nil
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
