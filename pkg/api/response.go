package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the generic envelope every endpoint answers with. Data carries
// the payload on success and per-field validation detail on a 400.
type Response struct {
	Code    int         `json:"code"`
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	URL     string      `json:"url,omitempty"`
}

func okResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Status: "ok", Data: data})
}

func okURLResponse(c *gin.Context, url string) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Status: "ok", URL: url})
}

func errorResponse(c *gin.Context, httpStatus int, status, message string, data interface{}) {
	c.AbortWithStatusJSON(httpStatus, Response{
		Code:    httpStatus,
		Status:  status,
		Message: message,
		Data:    data,
	})
}
