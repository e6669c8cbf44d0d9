package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouteOptions are the parts of the router that depend on deployment config.
type RouteOptions struct {
	CORSOrigins []string
	// AdminToken enables the /admin routes when set.
	AdminToken string
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, env *Env, opts RouteOptions) {

	// --- Middleware ---

	router.Use(env.Recoverer())
	router.Use(env.RequestLogger())
	router.Use(SecurityHeadersMiddleware())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Admin-Token"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
	}))

	router.Use(env.SessionMiddleware())

	// --- Posts ---

	router.GET("/", env.handle(env.Index))
	router.GET("/group/:slug/", env.handle(env.GroupPosts))
	router.GET("/profile/:username/", env.handle(env.Profile))
	router.GET("/posts/:post_id/", env.handle(env.PostDetail))
	router.Match([]string{http.MethodGet, http.MethodPost}, "/create/", env.handle(env.PostCreate))
	router.Match([]string{http.MethodGet, http.MethodPost}, "/posts/:post_id/edit/", env.handle(env.PostEdit))
	router.POST("/posts/:post_id/comment/", env.handle(env.AddComment))

	// --- Follows ---

	router.GET("/follow/", env.handle(env.FollowIndex))
	router.Match([]string{http.MethodGet, http.MethodPost}, "/profile/:username/follow/", env.handle(env.ProfileFollow))
	router.Match([]string{http.MethodGet, http.MethodPost}, "/profile/:username/unfollow/", env.handle(env.ProfileUnfollow))

	// --- Accounts ---

	accounts := router.Group("/auth")
	{
		accounts.POST("/signup/", env.handle(env.Signup))
		accounts.Match([]string{http.MethodGet, http.MethodPost}, "/login/", env.handle(env.Login))
		accounts.POST("/logout/", env.handle(env.Logout))
	}

	// --- Admin ---

	if opts.AdminToken != "" {
		admin := router.Group("/admin", AdminAuthMiddleware(opts.AdminToken))
		{
			admin.POST("/cache/clear/", env.ClearCache)
			admin.POST("/groups/", env.CreateGroup)
		}
	}

	// --- Operations ---

	router.Static("/media", env.Media.Root())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	router.NoRoute(env.handle(func(*Request) Outcome { return NotFound() }))
}
