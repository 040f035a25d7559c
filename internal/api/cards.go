package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/wortschatz/internal/cards"
)

const maxCardLimit = 50

func cardLimit(c *gin.Context) int {
	limit := intQuery(c, "limit", 25)
	if limit < 1 {
		limit = 1
	}
	if limit > maxCardLimit {
		limit = maxCardLimit
	}
	return limit
}

func (s *Server) topicCards(c *gin.Context) {
	topicID, ok := pathID(c, "topic_id")
	if !ok {
		return
	}
	user := currentUser(c)
	random := c.Query("random") == "true"

	views, err := s.cards.GetCards(c.Request.Context(), user.ID, &topicID, cardLimit(c), random)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) randomCards(c *gin.Context) {
	user := currentUser(c)

	views, err := s.cards.GetCards(c.Request.Context(), user.ID, nil, cardLimit(c), true)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) updateCardInfo(c *gin.Context) {
	userWordID, ok := pathID(c, "user_word_id")
	if !ok {
		return
	}
	outcome, err := cards.ParseOutcome(c.Query("guess"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	user := currentUser(c)

	view, err := s.cards.UpdateCard(c.Request.Context(), user.ID, userWordID, time.Now(), outcome)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// topicContext generates a practice sentence at the user's level from words
// of one topic.
func (s *Server) topicContext(c *gin.Context) {
	topicID, ok := pathID(c, "topic_id")
	if !ok {
		return
	}
	user := currentUser(c)

	topic, err := s.topics.GetByID(c.Request.Context(), topicID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	views, err := s.cards.GetCards(c.Request.Context(), user.ID, &topicID, 5, true)
	if err != nil {
		s.respondError(c, err)
		return
	}
	words := make([]string, 0, len(views))
	for _, v := range views {
		words = append(words, v.Word)
	}

	sentence, err := s.ai.GenerateSentence(c.Request.Context(), topic.Name, user.Level, words)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sentence)
}
