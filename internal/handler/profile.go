package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/moovie-catalog/internal/logging"
	"github.com/user/moovie-catalog/internal/middleware"
	"github.com/user/moovie-catalog/internal/utils"
)

// Profile 当前用户及其评分台账
func (h *Handler) Profile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.Repos.User.FindWithRatings(c.Request.Context(), userID)
	if err != nil {
		logging.Error().Err(err).Int("user_id", userID).Msg("[Handler] 查询用户失败")
		utils.InternalServerError(c, "")
		return
	}
	if user == nil {
		utils.NotFound(c, "用户不存在")
		return
	}

	utils.Success(c, gin.H{
		"user":    user,
		"session": sessionUser(c),
	})
}
