package handler

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/moovie-catalog/internal/logging"
	"github.com/user/moovie-catalog/internal/middleware"
	"github.com/user/moovie-catalog/internal/model"
	"github.com/user/moovie-catalog/internal/utils"
	"github.com/user/moovie-catalog/internal/validation"
)

type signupRequest struct {
	Username   string `json:"username" form:"username" validate:"required,min=2,max=50"`
	Email      string `json:"email" form:"email" validate:"required,account_email"`
	Password   string `json:"password" form:"password" validate:"required,password"`
	Repassword string `json:"repassword" form:"repassword" validate:"required,eqfield=Password"`
	Firstname  string `json:"firstname" form:"firstname" validate:"max=50"`
	Lastname   string `json:"lastname" form:"lastname" validate:"max=50"`
	Country    string `json:"country" form:"country" validate:"max=50"`
	State      string `json:"state" form:"state" validate:"max=50"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Signup 注册
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, "请求格式错误")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validation.Struct(req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	existing, err := h.Repos.User.FindByEmail(ctx, req.Email)
	if err != nil {
		logging.Error().Err(err).Msg("[Handler] 查询用户失败")
		utils.InternalServerError(c, "")
		return
	}
	if existing != nil {
		utils.Conflict(c, "该邮箱已被注册")
		return
	}

	user := &model.User{
		Username:  req.Username,
		Email:     req.Email,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Country:   req.Country,
		State:     req.State,
	}
	if err := h.Repos.User.Create(ctx, user, req.Password); err != nil {
		logging.Error().Err(err).Msg("[Handler] 创建用户失败")
		utils.InternalServerError(c, "注册失败，请重试")
		return
	}

	utils.Created(c, user)
}

// Login 登录，签发 JWT 并写入 Session
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, "请输入邮箱和密码")
		return
	}

	user, err := h.Repos.User.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		logging.Error().Err(err).Msg("[Handler] 查询用户失败")
		utils.InternalServerError(c, "")
		return
	}
	if user == nil || !h.Repos.User.CheckPassword(user, req.Password) {
		utils.Unauthorized(c, "邮箱或密码错误")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		logging.Error().Err(err).Msg("[Handler] 生成 token 失败")
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	c.SetCookie(middleware.TokenCookie, token, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)

	session := sessions.Default(c)
	session.Set(sessionKey, model.SessionUser{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
	if err := session.Save(); err != nil {
		logging.Warn().Err(err).Msg("[Handler] 保存 session 失败")
	}

	utils.Success(c, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)

	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()

	utils.SuccessWithMessage(c, "已退出登录", nil)
}
