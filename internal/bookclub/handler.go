package bookclub

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shelfmates/bookshelf/internal/apperr"
	"github.com/shelfmates/bookshelf/pkg/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var req models.CreateBookClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	club, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, club)
}

// CheckMembership returns the club snapshot for ?username=.
func (h *Handler) CheckMembership(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	membership, err := h.service.CheckMembership(c.Request.Context(), username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// Join handles PATCH /bookclub/join?username=&bookClubName=.
func (h *Handler) Join(c *gin.Context) {
	username := c.Query("username")
	clubName := c.Query("bookClubName")
	if username == "" || clubName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and bookClubName are required"})
		return
	}

	result, err := h.service.Join(c.Request.Context(), username, clubName)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	status := http.StatusCreated
	message := "Joined book club and added book to library"
	if !result.CopyCreated {
		status = http.StatusOK
		message = "Joined book club; book already in library"
	}
	c.JSON(status, gin.H{
		"message":     message,
		"BookClub":    result.BookClub,
		"book":        result.Book,
		"copyCreated": result.CopyCreated,
	})
}

// Provision re-runs personal copy provisioning for a member of club :id.
func (h *Handler) Provision(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	book, created, err := h.service.EnsurePersonalCopy(c.Request.Context(), username, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"book": book, "copyCreated": created})
}

func (h *Handler) PostMessage(c *gin.Context) {
	var req models.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, err := h.service.PostMessage(c.Request.Context(), c.Param("id"), req.Username, req.Message)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"messageBoard": board})
}

func (h *Handler) GetMessages(c *gin.Context) {
	board, err := h.service.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageBoard": board})
}

func (h *Handler) Search(c *gin.Context) {
	clubs, err := h.service.SearchClubs(c.Request.Context(), c.Query("search"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, clubs)
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	clubs := r.Group("/bookclub")
	{
		clubs.POST("/create", h.Create)
		clubs.GET("/check-membership", h.CheckMembership)
		clubs.PATCH("/join", h.Join)
		clubs.GET("/search", h.Search)
		clubs.POST("/:id/message", h.PostMessage)
		clubs.GET("/:id/messages", h.GetMessages)
		clubs.POST("/:id/provision", h.Provision)
	}
}
