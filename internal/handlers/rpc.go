package handlers

import (
	"errors"
	"net/http"

	"todo-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Error codes carried in the "data.code" field of an error envelope.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotSupported = "METHOD_NOT_SUPPORTED"
	CodeInternalError      = "INTERNAL_SERVER_ERROR"
)

var rpcCodes = map[string]struct {
	jsonRPC    int
	httpStatus int
}{
	CodeBadRequest:         {-32600, http.StatusBadRequest},
	CodeNotFound:           {-32004, http.StatusNotFound},
	CodeMethodNotSupported: {-32005, http.StatusMethodNotAllowed},
	CodeInternalError:      {-32603, http.StatusInternalServerError},
}

type RPCResponse struct {
	Result *RPCResult `json:"result,omitempty"`
	Error  *RPCError  `json:"error,omitempty"`
}

type RPCResult struct {
	Data interface{} `json:"data"`
}

type RPCError struct {
	Message string       `json:"message"`
	Code    int          `json:"code"`
	Data    RPCErrorData `json:"data"`
}

type RPCErrorData struct {
	Code       string `json:"code"`
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path"`
}

func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, RPCResponse{Result: &RPCResult{Data: data}})
}

func respondError(c *gin.Context, path, code, message string) {
	mapped, ok := rpcCodes[code]
	if !ok {
		code = CodeInternalError
		mapped = rpcCodes[code]
	}

	c.AbortWithStatusJSON(mapped.httpStatus, RPCResponse{Error: &RPCError{
		Message: message,
		Code:    mapped.jsonRPC,
		Data: RPCErrorData{
			Code:       code,
			HTTPStatus: mapped.httpStatus,
			Path:       path,
		},
	}})
}

// handleTodoError writes the envelope for a service error. Internal errors
// are logged and reported without detail.
func (h *TodoHandler) handleTodoError(c *gin.Context, path string, err error) {
	switch {
	case errors.Is(err, services.ErrTodoNotFound):
		respondError(c, path, CodeNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		respondError(c, path, CodeBadRequest, err.Error())
	default:
		h.logger.Error().
			Err(err).
			Str("procedure", path).
			Str("request_id", c.GetString("request_id")).
			Msg("procedure failed")
		respondError(c, path, CodeInternalError, "failed to process todo request")
	}
}
