package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/wortschatz/internal/auth"
	"github.com/example/wortschatz/internal/excel"
	"github.com/example/wortschatz/pkg/models"
)

type adminUserIn struct {
	userIn
	Role string `json:"role"`
}

// adminWordOut is a catalog word with the users who study it.
type adminWordOut struct {
	models.Word
	WordType string   `json:"word_type"`
	Users    []string `json:"users"`
}

func (s *Server) adminListUsers(c *gin.Context) {
	users, err := s.users.GetAll(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) adminAddUser(c *gin.Context) {
	var in adminUserIn
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
	if in.Role != "" {
		if err := s.users.AssignRole(c.Request.Context(), user.ID, in.Role); err != nil {
			s.respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) adminGetUser(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	user, err := s.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) adminUpdateUser(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	var in userIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	user, err := s.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.applyUserUpdate(c, user, in); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) adminRemoveUser(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	user, err := s.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.users.Delete(c.Request.Context(), userID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Success": "User " + user.Username + " was deleted successfully."})
}

func (s *Server) adminListUserWords(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	views, err := s.vocab.GetAllUserWords(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) adminListWords(c *gin.Context) {
	ctx := c.Request.Context()
	words, err := s.words.GetAll(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]adminWordOut, 0, len(words))
	for _, w := range words {
		wordType, err := s.words.GetWordTypeByID(ctx, w.WordTypeID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		users, err := s.words.GetWordUsers(ctx, w.ID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		out = append(out, adminWordOut{Word: w, WordType: wordType.Name, Users: users})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) adminRemoveWord(c *gin.Context) {
	wordID, ok := pathID(c, "word_id")
	if !ok {
		return
	}
	if err := s.words.Delete(c.Request.Context(), wordID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Success": "Word was deleted successfully."})
}

type importIn struct {
	FilePath  string `json:"file_path" binding:"required"`
	SheetName string `json:"sheet_name"`
}

// adminImportWords bulk-loads catalog words from an XLSX or CSV file on the
// server filesystem.
func (s *Server) adminImportWords(c *gin.Context) {
	var in importIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	config := excel.DefaultImportConfig()
	config.FilePath = in.FilePath
	if in.SheetName != "" {
		config.SheetName = in.SheetName
	}

	result, err := excel.ImportWords(c.Request.Context(), config)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) adminSuggestByPrefix(c *gin.Context) {
	letters := c.Param("letters")
	pageStart := intQuery(c, "page_start", 1)
	pageCount := intQuery(c, "page_count", 1)

	suggestions, err := s.lookup.SuggestByPrefix(c.Request.Context(), letters, pageStart, pageCount)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestions)
}
