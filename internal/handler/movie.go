package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/moovie-catalog/internal/logging"
	"github.com/user/moovie-catalog/internal/middleware"
	"github.com/user/moovie-catalog/internal/service"
	"github.com/user/moovie-catalog/internal/utils"
)

// Home 首页栏目
func (h *Handler) Home(c *gin.Context) {
	page, err := h.Catalog.Home(c.Request.Context(), middleware.GetUserIDPtr(c))
	if err != nil {
		logging.Error().Err(err).Msg("[Handler] 首页查询失败")
		utils.InternalServerError(c, "")
		return
	}
	utils.Success(c, page)
}

// Movies 电影列表 / 搜索
func (h *Handler) Movies(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		utils.BadRequest(c, service.ErrInvalidPage.Error())
		return
	}
	query := c.Query("query")
	if query == "" {
		query = c.Query("q")
	}

	result, err := h.Catalog.Search(c.Request.Context(), service.SearchParams{Page: page, Query: query})
	switch {
	case err == nil:
		utils.Success(c, result)
	case errors.Is(err, service.ErrInvalidPage), errors.Is(err, service.ErrInvalidQuery):
		utils.BadRequest(c, err.Error())
	default:
		logging.Error().Err(err).Str("query", query).Int("page", page).Msg("[Handler] 电影列表查询失败")
		utils.InternalServerError(c, "")
	}
}

// Movie 电影详情
func (h *Handler) Movie(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "invalid movie id")
		return
	}

	detail, err := h.Catalog.Detail(c.Request.Context(), movieID, middleware.GetUserIDPtr(c))
	switch {
	case err == nil:
		utils.Success(c, detail)
	case errors.Is(err, service.ErrMovieNotFound):
		utils.NotFound(c, "电影未找到")
	default:
		logging.Error().Err(err).Int("movie_id", movieID).Msg("[Handler] 电影详情查询失败")
		utils.InternalServerError(c, "")
	}
}

type ratingRequest struct {
	Rating *int `json:"rating" form:"rating" binding:"required"`
}

// SubmitRating 提交评分
func (h *Handler) SubmitRating(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		utils.BadRequest(c, "invalid movie id")
		return
	}

	var req ratingRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, service.ErrInvalidRating.Error())
		return
	}

	outcome, err := h.Ratings.Submit(c.Request.Context(), service.RatingSubmission{
		MovieID: movieID,
		UserID:  middleware.GetUserID(c),
		Rating:  *req.Rating,
	})
	switch {
	case err == nil:
		utils.SuccessWithMessage(c, "评分成功", outcome)
	case errors.Is(err, service.ErrInvalidRating):
		utils.BadRequest(c, service.ErrInvalidRating.Error())
	case errors.Is(err, service.ErrMovieNotFound):
		utils.NotFound(c, "电影未找到")
	case errors.Is(err, service.ErrUserNotFound):
		utils.NotFound(c, "用户不存在")
	case errors.Is(err, service.ErrPartialFailure):
		utils.PartialSuccess(c, service.ErrPartialFailure.Error(), outcome)
	default:
		logging.Error().Err(err).Int("movie_id", movieID).Msg("[Handler] 评分提交失败")
		utils.InternalServerError(c, "")
	}
}
