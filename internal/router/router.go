package router

import (
	"encoding/gob"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/moovie-catalog/internal/handler"
	"github.com/user/moovie-catalog/internal/middleware"
	"github.com/user/moovie-catalog/internal/model"
)

// New 创建 gin 引擎并挂载全局中间件与路由
func New(h *handler.Handler) *gin.Engine {
	// 注册 Session 模型
	gob.Register(model.SessionUser{})

	if h.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Security())

	// 启用 gzip，/metrics 由 promhttp 自行处理压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	store := cookie.NewStore([]byte(h.Config.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 天
		HttpOnly: true,
		Secure:   h.Config.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("mysession", store))

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== 公开接口 ====================
	public := r.Group("/")
	public.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		public.GET("", h.Home)
		public.GET("/movies", h.Movies)
		public.GET("/search", h.Movies)
		public.GET("/movies/:movieId", h.Movie)
	}

	// ==================== 认证 ====================
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	// ==================== 需要登录 ====================
	authed := r.Group("/")
	authed.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		authed.POST("/movies/:movieId/rate", h.SubmitRating)
		authed.GET("/profile", h.Profile)
	}
}
