package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/snippet-bff/internal/envelope"
)

// LoginHandler は POST /api/login のハンドラーを返します。
func LoginHandler(b *Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			c.JSON(http.StatusBadRequest, envelope.Fail(MessageMissingFields))
			return
		}
		c.JSON(b.Login(c.Request.Context(), sessions.Default(c), creds))
	}
}

// RegisterHandler は POST /api/register のハンドラーを返します。
func RegisterHandler(b *Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			c.JSON(http.StatusBadRequest, envelope.Fail(MessageMissingFields))
			return
		}
		c.JSON(b.Register(c.Request.Context(), sessions.Default(c), creds))
	}
}

// LogoutHandler は DELETE /api/login のハンドラーを返します。
func LogoutHandler(b *Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(b.Logout(c.Request.Context(), sessions.Default(c)))
	}
}

// CurrentUserHandler は GET /api/login のハンドラーを返します。
func CurrentUserHandler(b *Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(b.CurrentUser(c.Request.Context(), sessions.Default(c)))
	}
}

type sessionInfo struct {
	APIURL   string `json:"apiUrl"`
	LoggedIn bool   `json:"loggedIn"`
}

// SessionHandler は GET /api/session のハンドラーを返します。
// トークン自体は返さず、ログイン状態と上流のURLのみを返します。
func SessionHandler(b *Bridge, apiURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, envelope.New(true, sessionInfo{
			APIURL:   apiURL,
			LoggedIn: b.LoggedIn(sessions.Default(c)),
		}, ""))
	}
}
