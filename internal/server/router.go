package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shelfmates/bookshelf/internal/bookclub"
	"github.com/shelfmates/bookshelf/internal/friends"
	"github.com/shelfmates/bookshelf/internal/health"
	"github.com/shelfmates/bookshelf/internal/library"
	"github.com/shelfmates/bookshelf/internal/progress"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/metrics"
)

type Options struct {
	FrontendURL string
	SearchLimit int
}

// NewRouter wires every service onto a gin engine.
func NewRouter(db *database.Conn, opts Options) *gin.Engine {
	users := library.NewDirectory(db, opts.SearchLimit)
	lib := library.NewLibrary(db)
	libraryHandler := library.NewHandler(users, lib)
	friendHandler := friends.NewHandler(friends.NewService(db), users)
	clubHandler := bookclub.NewHandler(bookclub.NewService(db, opts.SearchLimit))
	progressHandler := progress.NewHandler(progress.NewAggregator(db))
	healthHandler := health.NewHandler(db)
	metricsHandler := metrics.NewHandler()

	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware())

	config := cors.DefaultConfig()
	if opts.FrontendURL == "" || opts.FrontendURL == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = []string{opts.FrontendURL}
		config.AllowCredentials = true
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(config))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/readyz", healthHandler.Readyz)
	router.GET("/metrics", metricsHandler.Metrics)

	router.POST("/users", libraryHandler.CreateUser)
	router.GET("/userinfo", libraryHandler.GetUserInfo)
	router.POST("/books", libraryHandler.AddBook)
	router.GET("/books", libraryHandler.ListBooks)
	router.PATCH("/books/:isbn", libraryHandler.UpdateBook)

	friendHandler.RegisterRoutes(router)
	clubHandler.RegisterRoutes(router)
	router.GET("/pages-read/:year", progressHandler.PagesRead)

	return router
}
