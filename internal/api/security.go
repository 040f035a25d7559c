package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refresh_token"

// login implements the OAuth2-password-style token endpoint: form
// credentials in, access token out, refresh token as an httpOnly cookie.
func (s *Server) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password are required"})
		return
	}

	user, err := s.auth.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	accessToken, err := s.auth.CreateAccessToken(user)
	if err != nil {
		s.respondError(c, err)
		return
	}
	refreshToken, err := s.auth.CreateRefreshToken(user)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.SetCookie(refreshCookieName, refreshToken, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"access_token": accessToken, "token_type": "bearer"})
}

// refresh exchanges the refresh cookie for a fresh access token.
func (s *Server) refresh(c *gin.Context) {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Refresh token cookie not found"})
		return
	}

	username, err := s.auth.ValidateRefreshToken(cookie)
	if err != nil {
		s.respondError(c, err)
		return
	}
	user, err := s.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		s.respondError(c, err)
		return
	}

	accessToken, err := s.auth.CreateAccessToken(user)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": accessToken, "token_type": "bearer"})
}
