package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/example/wortschatz/internal/ai"
	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/internal/auth"
	"github.com/example/wortschatz/internal/cards"
	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/internal/logger"
	"github.com/example/wortschatz/internal/vocab"
	"github.com/example/wortschatz/internal/wordinfo"
	"github.com/example/wortschatz/pkg/models"
)

const contextUserKey = "currentUser"

// Server holds the HTTP adapters over the domain services.
type Server struct {
	auth   *auth.Service
	users  *database.UserRepository
	topics *database.TopicRepository
	words  *database.WordRepository
	vocab  *vocab.Manager
	cards  *cards.Tracker
	ai     *ai.Client
	lookup *wordinfo.Client
	log    *logger.Logger
}

// NewServer wires the API layer.
func NewServer(
	authService *auth.Service,
	users *database.UserRepository,
	topics *database.TopicRepository,
	words *database.WordRepository,
	vocabManager *vocab.Manager,
	cardTracker *cards.Tracker,
	aiClient *ai.Client,
	lookup *wordinfo.Client,
	log *logger.Logger,
) *Server {
	return &Server{
		auth:   authService,
		users:  users,
		topics: topics,
		words:  words,
		vocab:  vocabManager,
		cards:  cardTracker,
		ai:     aiClient,
		lookup: lookup,
		log:    log.With("component", "api"),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the German-Context App!"})
	})

	router.POST("/token", s.login)
	router.POST("/refresh", s.refresh)
	router.POST("/users", s.registerUser)

	authed := router.Group("", s.requireUser)
	{
		authed.GET("/users/me", s.currentUser)
		authed.PUT("/users/me", s.updateSelf)
		authed.PATCH("/users/me", s.patchSelf)
		authed.DELETE("/users/me", s.removeSelf)

		authed.GET("/users/me/words", s.listOwnWords)
		authed.POST("/users/me/words", s.addOwnWord)
		authed.PATCH("/users/me/words/:user_word_id", s.patchOwnWord)
		authed.DELETE("/users/me/words/:user_word_id", s.removeOwnWord)

		authed.GET("/topics", s.listTopics)

		authed.GET("/user_cards/topic/:topic_id", s.topicCards)
		authed.GET("/user_cards/random", s.randomCards)
		authed.GET("/user_cards/update_info/:user_word_id", s.updateCardInfo)

		authed.GET("/context/topic/:topic_id", s.topicContext)
	}

	admin := router.Group("/admin", s.requireUser, s.requireAdmin)
	{
		admin.GET("/users", s.adminListUsers)
		admin.POST("/users/add", s.adminAddUser)
		admin.GET("/users/:user_id", s.adminGetUser)
		admin.PUT("/users/:user_id", s.adminUpdateUser)
		admin.DELETE("/users/:user_id", s.adminRemoveUser)
		admin.GET("/users/:user_id/words", s.adminListUserWords)

		admin.GET("/words", s.adminListWords)
		admin.DELETE("/words/:word_id", s.adminRemoveWord)
		admin.POST("/words/import", s.adminImportWords)
		admin.GET("/suggest/:letters", s.adminSuggestByPrefix)
	}

	return router
}

// requireUser authenticates the bearer token and stores the principal on the
// request context.
func (s *Server) requireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	user, err := s.auth.CurrentUser(c.Request.Context(), token)
	if err != nil {
		s.respondError(c, err)
		c.Abort()
		return
	}
	c.Set(contextUserKey, user)
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	user := currentUser(c)
	isAdmin, err := s.users.HasRole(c.Request.Context(), user.ID, models.RoleAdmin)
	if err != nil {
		s.respondError(c, err)
		c.Abort()
		return
	}
	if !isAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden,
			gin.H{"detail": "User \"" + user.Username + "\" is not an Admin. Not enough privileges."})
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(contextUserKey).(*models.User)
}

// respondError maps domain failures onto HTTP statuses. Suggestion lists ride
// along on resolution failures so clients can re-attempt with corrected
// input.
func (s *Server) respondError(c *gin.Context, err error) {
	var notResolvable *apperr.NotResolvableError
	switch {
	case errors.As(err, &notResolvable):
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Word \"" + notResolvable.Word + "\" could not be resolved. " +
				"Provide following values: 'translation', 'level', 'word_type'.",
			"suggestions": notResolvable.Suggestions,
		})
	case errors.Is(err, apperr.ErrDuplicateUserWord), errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrNoWordsFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
	case errors.Is(err, apperr.ErrLookupUnavailable), errors.Is(err, wordinfo.ErrUnavailable), errors.Is(err, ai.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": err.Error()})
	default:
		s.log.Error("internal error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}
