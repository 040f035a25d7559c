package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/wortschatz/internal/auth"
	"github.com/example/wortschatz/pkg/models"
)

type userIn struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Level    string `json:"level"`
}

type userPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Level    *string `json:"level"`
}

func (s *Server) registerUser(c *gin.Context) {
	var in userIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Level:    models.CoerceLevel(in.Level),
	}
	if err := s.users.Create(c.Request.Context(), user); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) currentUser(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) updateSelf(c *gin.Context) {
	var in userIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	user := currentUser(c)
	if err := s.applyUserUpdate(c, user, in); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) patchSelf(c *gin.Context) {
	var in userPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	user := currentUser(c)
	if err := s.applyUserPatch(c, user, in); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) removeSelf(c *gin.Context) {
	user := currentUser(c)
	if err := s.users.Delete(c.Request.Context(), user.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) applyUserUpdate(c *gin.Context, user *models.User, in userIn) error {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return err
	}
	user.Username = in.Username
	user.Email = in.Email
	user.Password = hash
	user.Level = models.CoerceLevel(in.Level)
	return s.users.Update(c.Request.Context(), user)
}

func (s *Server) applyUserPatch(c *gin.Context, user *models.User, in userPatch) error {
	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return err
		}
		user.Password = hash
	}
	if in.Level != nil {
		user.Level = models.CoerceLevel(*in.Level)
	}
	return s.users.Update(c.Request.Context(), user)
}

func (s *Server) listTopics(c *gin.Context) {
	topics, err := s.topics.GetAll(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topics)
}
