package progress

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shelfmates/bookshelf/internal/apperr"
)

type Handler struct {
	aggregator *Aggregator
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

// PagesRead handles GET /pages-read/:year?username=.
func (h *Handler) PagesRead(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 || year > 9999 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
		return
	}
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	report, err := h.aggregator.Report(c.Request.Context(), username, year)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
