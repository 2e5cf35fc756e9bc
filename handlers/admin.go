package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) Dashboard(c *gin.Context) {
	r, err := h.reports.Report(c.Request.Context())
	if err != nil {
		fail(c, "An error occurred while building the dashboard.", err)
		return
	}
	respond(c, http.StatusOK, "Dashboard retrieved successfully.", r)
}

// ExportDashboard streams the report as an xlsx workbook.
func (h *Handler) ExportDashboard(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reports.Export(c.Request.Context(), &buf); err != nil {
		fail(c, "An error occurred while exporting the dashboard.", err)
		return
	}
	name := fmt.Sprintf("dashboard-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// OrderFeed upgrades the request to the admin websocket feed.
func (h *Handler) OrderFeed(c *gin.Context) {
	if h.feed == nil {
		fail(c, "Order feed is not enabled.", fmt.Errorf("%w: order feed is not configured", apperr.ErrNotFound))
		return
	}
	h.feed.ServeHTTP(c.Writer, c.Request)
}
