package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gerrardelliot83-create/furrie-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an API error body. Code is the stable machine code
// clients branch on.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response. Internal details are never
// exposed to the caller.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		c.JSON(errors.HTTPStatus(appErr.Code), Response{
			Success: false,
			Error: &Error{
				Code:    string(appErr.Code),
				Message: appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error: &Error{
			Code:    string(errors.CodeInternal),
			Message: "internal server error",
		},
	})
}
