package api

import (
	"context"
	"time"

	"github.com/audioforge/audioforge/pkg/convert"
	"github.com/audioforge/audioforge/pkg/logging"
	"github.com/audioforge/audioforge/pkg/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

// Converter runs the upload-to-download-URL pipeline.
type Converter interface {
	Convert(ctx context.Context, req convert.Request) (string, error)
}

// UserCreator registers new users.
type UserCreator interface {
	CreateUser(ctx context.Context, username string) (*store.User, error)
}

// FileFinder resolves a record for its owning user.
type FileFinder interface {
	GetFileByUser(ctx context.Context, userID, recordID int64) (*store.FileRecord, error)
}

// Server holds the HTTP surface and its collaborators. All domain errors are
// mapped to the response envelope here and nowhere else.
type Server struct {
	fs        afero.Fs
	converter Converter
	users     UserCreator
	files     FileFinder
	logger    *logging.Logger
}

// NewServer wires the HTTP layer with its collaborators.
func NewServer(fs afero.Fs, converter Converter, users UserCreator, files FileFinder, logger *logging.Logger) *Server {
	return &Server{
		fs:        fs,
		converter: converter,
		users:     users,
		files:     files,
		logger:    logger,
	}
}

// Router builds the gin engine with logging, recovery, CORS and the three
// service routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(s.requestLogger(), gin.CustomRecovery(s.recovery))

	// Mirror the permissive defaults the service has always shipped with:
	// any origin, credentials allowed.
	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/files.convert", s.handleConvertFile)
	router.GET("/files.record", s.handleDownloadFile)
	router.POST("/users.create", s.handleCreateUser)

	return router
}
