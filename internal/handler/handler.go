package handler

import (
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/moovie-catalog/internal/config"
	"github.com/user/moovie-catalog/internal/model"
	"github.com/user/moovie-catalog/internal/repository"
	"github.com/user/moovie-catalog/internal/service"
)

// sessionKey Session 中保存用户信息的键
const sessionKey = "userinfo"

// Handler HTTP 处理器
type Handler struct {
	Repos   *repository.Repositories
	Config  *config.Config
	Catalog *service.CatalogService
	Ratings *service.RatingService
}

// NewHandler 创建处理器，recommender 为 nil 时不做推荐
func NewHandler(repos *repository.Repositories, cfg *config.Config, recommender service.Recommender) *Handler {
	catalog := service.NewCatalogService(repos.Movie, repos.Ledger, recommender, service.CatalogOptions{
		RailTTL:         cfg.RailCacheTTL,
		SearchTTL:       cfg.SearchCacheTTL,
		SearchCacheSize: cfg.SearchCacheSize,
	})

	return &Handler{
		Repos:   repos,
		Config:  cfg,
		Catalog: catalog,
		Ratings: service.NewRatingService(repos.User, repos.Movie, repos.Ledger, catalog),
	}
}

// sessionUser 当前 Session 中的用户信息
func sessionUser(c *gin.Context) *model.SessionUser {
	session := sessions.Default(c)
	if userinfo := session.Get(sessionKey); userinfo != nil {
		if su, ok := userinfo.(model.SessionUser); ok {
			return &su
		}
	}
	return nil
}

// movieIDParam 解析路径中的电影 ID
func movieIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("movieId"))
	if err != nil {
		return 0, false
	}
	return id, true
}
