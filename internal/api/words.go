package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/wortschatz/internal/vocab"
)

type wordIn struct {
	Word               string   `json:"word" binding:"required"`
	Translation        string   `json:"translation"`
	Level              string   `json:"level"`
	WordType           string   `json:"word_type"`
	Example            string   `json:"example"`
	ExampleTranslation string   `json:"example_translation"`
	Topics             []string `json:"topics"`
}

type wordPatch struct {
	Word               *string  `json:"word"`
	WordType           *string  `json:"word_type"`
	English            *string  `json:"english"`
	Level              *string  `json:"level"`
	Example            *string  `json:"example"`
	ExampleTranslation *string  `json:"example_translation"`
	Topics             []string `json:"topics"`
}

func (s *Server) listOwnWords(c *gin.Context) {
	user := currentUser(c)
	limit := intQuery(c, "limit", 25)
	offset := intQuery(c, "offset", 0)
	sortKey := c.DefaultQuery("sort", "id")

	views, err := s.vocab.GetUserWords(c.Request.Context(), user.ID, limit, offset, sortKey)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) addOwnWord(c *gin.Context) {
	var in wordIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	user := currentUser(c)

	view, err := s.vocab.AddUserWord(c.Request.Context(), user.ID, vocab.AddInput{
		Word:               in.Word,
		Translation:        in.Translation,
		Level:              in.Level,
		WordType:           in.WordType,
		Example:            in.Example,
		ExampleTranslation: in.ExampleTranslation,
		Topics:             in.Topics,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (s *Server) patchOwnWord(c *gin.Context) {
	userWordID, ok := pathID(c, "user_word_id")
	if !ok {
		return
	}
	var in wordPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	user := currentUser(c)

	view, err := s.vocab.UpdateUserWord(c.Request.Context(), user.ID, userWordID, vocab.UpdateInput{
		Word:               in.Word,
		WordType:           in.WordType,
		English:            in.English,
		Level:              in.Level,
		Example:            in.Example,
		ExampleTranslation: in.ExampleTranslation,
		Topics:             in.Topics,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) removeOwnWord(c *gin.Context) {
	userWordID, ok := pathID(c, "user_word_id")
	if !ok {
		return
	}
	user := currentUser(c)

	view, err := s.vocab.RemoveUserWord(c.Request.Context(), user.ID, userWordID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
