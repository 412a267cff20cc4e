package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/middleware"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/utils"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"omitempty,min=2,max=20"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	// 邮箱或用户名
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册并登录
func (h *Handler) Register(c *gin.Context) {
	if !h.accountsEnabled(c) {
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "邮箱格式不正确或密码少于 6 个字符")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := h.Users.FindByEmail(email)
	if err != nil {
		h.fail(c, err)
		return
	}
	if existing != nil {
		utils.Error(c, 409, "该邮箱已被注册")
		return
	}

	// 未填写用户名时截取邮箱 @ 前的内容
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	if u, err := h.Users.FindByUsername(username); err != nil {
		h.fail(c, err)
		return
	} else if u != nil {
		utils.Error(c, 409, "该用户名已被使用")
		return
	}

	user, err := h.Users.Create(email, username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !h.startSession(c, user) {
		return
	}
	utils.SuccessWithMessage(c, "注册成功", user)
}

// Login 登录，支持邮箱或用户名
func (h *Handler) Login(c *gin.Context) {
	if !h.accountsEnabled(c) {
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请输入账号和密码")
		return
	}

	account := strings.TrimSpace(req.Account)
	var (
		user *model.User
		err  error
	)
	if strings.Contains(account, "@") {
		user, err = h.Users.FindByEmail(strings.ToLower(account))
	} else {
		user, err = h.Users.FindByUsername(account)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if user == nil || !h.Users.CheckPassword(user, req.Password) {
		utils.Unauthorized(c, "账号或密码错误")
		return
	}

	if !h.startSession(c, user) {
		return
	}
	utils.SuccessWithMessage(c, "登录成功", user)
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	middleware.SetTokenCookie(c, "", 0)

	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()

	utils.SuccessWithMessage(c, "已退出登录", nil)
}

// Me 当前登录用户，未登录时返回 200 与空用户
func (h *Handler) Me(c *gin.Context) {
	if !h.accountsEnabled(c) {
		return
	}
	var user *model.User
	if userID := middleware.GetUserID(c); userID > 0 {
		u, err := h.Users.FindByID(userID)
		if err != nil {
			h.fail(c, err)
			return
		}
		if u == nil {
			// 用户已被删除时清掉残留会话
			session := sessions.Default(c)
			session.Clear()
			_ = session.Save()
		}
		user = u
	}
	if user == nil {
		c.JSON(http.StatusOK, utils.Response{Code: http.StatusOK, Message: "未登录", Data: nil, Success: false})
		return
	}
	utils.Success(c, user)
}

// startSession 签发 Token 并写入会话
func (h *Handler) startSession(c *gin.Context, user *model.User) bool {
	token, err := middleware.GenerateToken(user.ID, user.Email, user.Role, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		h.fail(c, err)
		return false
	}
	middleware.SetTokenCookie(c, token, h.Config.JWTExpiry)

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, model.SessionUser{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	})
	_ = session.Save()
	return true
}
