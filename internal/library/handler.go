package library

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shelfmates/bookshelf/internal/apperr"
	"github.com/shelfmates/bookshelf/pkg/models"
)

// Handler serves user registration, profile lookup and the personal library.
type Handler struct {
	users   *Directory
	library *Library
}

func NewHandler(users *Directory, library *Library) *Handler {
	return &Handler{users: users, library: library}
}

// CreateUser registers a username. Credentials live with the identity provider.
func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUserInfo returns the public profile of ?username=.
func (h *Handler) GetUserInfo(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UserInfo{
		Username: user.Username,
		ImageURL: user.ImageURL,
		DarkMode: user.DarkMode,
	})
}

// AddBook adds a book to the library of the username given in the body.
func (h *Handler) AddBook(c *gin.Context) {
	var wire struct {
		Username string `json:"username"`
	}
	var book models.Book
	if err := c.ShouldBindBodyWithJSON(&book); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.ShouldBindBodyWithJSON(&wire); err != nil || wire.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	created, err := h.library.AddBook(c.Request.Context(), wire.Username, &book)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateBook handles PATCH /books/:isbn for the username given in the body.
func (h *Handler) UpdateBook(c *gin.Context) {
	var wire struct {
		Username string `json:"username"`
	}
	var update models.BookUpdate
	if err := c.ShouldBindBodyWithJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.ShouldBindBodyWithJSON(&wire); err != nil || wire.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	book, err := h.library.UpdateBook(c.Request.Context(), wire.Username, c.Param("isbn"), update)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// ListBooks returns every book owned by ?username=.
func (h *Handler) ListBooks(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	books, err := h.library.ListBooks(c.Request.Context(), username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}
