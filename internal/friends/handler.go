package friends

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shelfmates/bookshelf/internal/apperr"
	"github.com/shelfmates/bookshelf/internal/library"
	"github.com/shelfmates/bookshelf/pkg/models"
)

type Handler struct {
	service *Service
	users   *library.Directory
}

func NewHandler(service *Service, users *library.Directory) *Handler {
	return &Handler{service: service, users: users}
}

// GetFriends lists accepted friends of ?username=.
func (h *Handler) GetFriends(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	friends, err := h.service.Friends(c.Request.Context(), username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// GetRequests lists incoming pending requests of ?username=.
func (h *Handler) GetRequests(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	requests, err := h.service.IncomingRequests(c.Request.Context(), username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// GetSentRequests lists outgoing pending requests of ?username=.
func (h *Handler) GetSentRequests(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	requests, err := h.service.SentRequests(c.Request.Context(), username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (h *Handler) SendRequest(c *gin.Context) {
	var req models.SendFriendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.SendRequest(c.Request.Context(), req.FromUsername, req.ToUsername)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	message := "Friend request sent successfully"
	if result.Mutual {
		message = "Friend request accepted"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "status": result.Status})
}

func (h *Handler) AcceptRequest(c *gin.Context) {
	var req models.RespondFriendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	friend, err := h.service.Accept(c.Request.Context(), req.Username, req.RequesterID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend request accepted", "friend": friend})
}

func (h *Handler) DeclineRequest(c *gin.Context) {
	var req models.RespondFriendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Decline(c.Request.Context(), req.Username, req.RequesterID); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend request declined"})
}

// SearchUsers does a bounded prefix search on ?search=.
func (h *Handler) SearchUsers(c *gin.Context) {
	users, err := h.users.Search(c.Request.Context(), c.Query("search"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// RegisterRoutes mounts the friend and user-search endpoints on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	friends := r.Group("/friends")
	{
		friends.GET("", h.GetFriends)
		friends.GET("/requests", h.GetRequests)
		friends.GET("/requests/sent", h.GetSentRequests)
		friends.POST("/send-request", h.SendRequest)
		friends.POST("/accept", h.AcceptRequest)
		friends.POST("/decline", h.DeclineRequest)
	}
	r.GET("/users/search", h.SearchUsers)
}
