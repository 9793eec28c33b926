package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/audioforge/audioforge/pkg/convert"
	"github.com/audioforge/audioforge/pkg/store"
	"github.com/audioforge/audioforge/pkg/upload"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

const blankFieldMessage = "Field cannot be blank"

// handleConvertFile accepts a WAV upload and answers with the download URL of
// the converted MP3. The body is consumed as a stream; it is never buffered
// whole.
func (s *Server) handleConvertFile(c *gin.Context) {
	fieldErrors := map[string][]string{}

	userID, err := strconv.ParseInt(c.GetHeader("user_id"), 10, 64)
	if err != nil {
		fieldErrors["user_id"] = []string{"Not a valid integer."}
	}
	userUUID := c.GetHeader("user_uuid")
	if strings.TrimSpace(userUUID) == "" {
		fieldErrors["user_uuid"] = []string{blankFieldMessage}
	}
	if len(fieldErrors) > 0 {
		errorResponse(c, http.StatusBadRequest, "bad request", "Unprocessable Entity", fieldErrors)
		return
	}

	// Pull the first named file part straight off the wire.
	mr, err := c.Request.MultipartReader()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "bad request", "File is required.", nil)
		return
	}
	part, err := mr.NextPart()
	if err != nil || part.FileName() == "" {
		errorResponse(c, http.StatusBadRequest, "bad request", "File is required.", nil)
		return
	}
	defer part.Close()

	url, err := s.converter.Convert(c.Request.Context(), convert.Request{
		UserID:   userID,
		UserUUID: userUUID,
		Filename: part.FileName(),
		Body:     part,
	})
	if err != nil {
		s.renderConvertError(c, err)
		return
	}
	okURLResponse(c, url)
}

// renderConvertError is the single point mapping pipeline failures onto the
// envelope. Encoder stderr stays in the logs.
func (s *Server) renderConvertError(c *gin.Context, err error) {
	var encErr *convert.EncodeError
	switch {
	case errors.Is(err, store.ErrNotFound):
		errorResponse(c, http.StatusNotFound, "not found", "User not found", nil)
	case errors.As(err, &encErr):
		errorResponse(c, http.StatusBadRequest, "bad request",
			"Invalid file. Failed to convert file to mp3 format.", nil)
	default:
		s.logger.Error("conversion failed", "error", err)
		errorResponse(c, http.StatusInternalServerError, "internal server error", "Internal server error", nil)
	}
}

// handleDownloadFile streams a stored MP3 back to its owner in the same
// chunk size uploads come in with.
func (s *Server) handleDownloadFile(c *gin.Context) {
	fieldErrors := map[string][]string{}

	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		fieldErrors["user_id"] = []string{"Not a valid integer."}
	}
	recordID, err := strconv.ParseInt(c.Query("record_id"), 10, 64)
	if err != nil {
		fieldErrors["record_id"] = []string{"Not a valid integer."}
	}
	if len(fieldErrors) > 0 {
		errorResponse(c, http.StatusBadRequest, "bad request", "Unprocessable Entity", fieldErrors)
		return
	}

	rec, err := s.files.GetFileByUser(c.Request.Context(), userID, recordID)
	if errors.Is(err, store.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "not found", "User or required mp3 file not found", nil)
		return
	}
	if err != nil {
		s.logger.Error("record lookup failed", "error", err)
		errorResponse(c, http.StatusInternalServerError, "internal server error", "Internal server error", nil)
		return
	}

	file, err := s.fs.Open(rec.FilePath)
	if err != nil {
		s.logger.Error("stored file missing", "path", rec.FilePath, "error", err)
		errorResponse(c, http.StatusInternalServerError, "internal server error", "Internal server error", nil)
		return
	}
	defer file.Close()

	chunks := upload.NewChunkReader(file)
	first, err := chunks.Next()
	if err != nil && err != io.EOF {
		s.logger.Error("failed to read stored file", "path", rec.FilePath, "error", err)
		errorResponse(c, http.StatusInternalServerError, "internal server error", "Internal server error", nil)
		return
	}

	contentType := "application/octet-stream"
	if len(first) > 0 {
		contentType = mimetype.Detect(first).String()
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", rec.Filename))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)

	for len(first) > 0 {
		if _, err := c.Writer.Write(first); err != nil {
			s.logger.Warn("client went away mid-download", "path", rec.FilePath, "error", err)
			return
		}
		first, err = chunks.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Error("failed reading stored file mid-stream", "path", rec.FilePath, "error", err)
			return
		}
	}
}
