package serializer

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aoba-arch/permitdesk/internal/pkg/apperr"
)

// Response
type Response struct {
	Code  int         `json:"code"`
	Data  interface{} `json:"data,omitempty"`
	Msg   string      `json:"msg"`
	Error string      `json:"error,omitempty"`
}

// OK
func OK(data interface{}) Response {
	return Response{
		Code: http.StatusOK,
		Data: data,
		Msg:  "ok",
	}
}

// Created
func Created(data interface{}) Response {
	return Response{
		Code: http.StatusCreated,
		Data: data,
		Msg:  "created",
	}
}

// Err
func Err(errCode int, msg string, err error) Response {
	res := Response{
		Code: errCode,
		Msg:  msg,
	}
	// development mode, show error detail
	if err != nil && gin.Mode() != gin.ReleaseMode {
		res.Error = fmt.Sprintf("%+v", err)
	}
	return res
}

// ParamErr
func ParamErr(msg string, err error) Response {
	if msg == "" {
		msg = "parameter error"
	}
	return Err(http.StatusBadRequest, msg, err)
}

// FromError maps a service error onto the HTTP envelope: not found is 404,
// workflow and version conflicts are 409, validation failures are 422,
// anything else is a 500.
func FromError(err error) Response {
	switch {
	case apperr.IsNotFound(err):
		return Err(http.StatusNotFound, err.Error(), nil)
	case apperr.IsInvalidTransition(err), apperr.IsConflict(err):
		return Err(http.StatusConflict, err.Error(), nil)
	case apperr.IsValidation(err):
		return Err(http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		return Err(http.StatusInternalServerError, "internal error", err)
	}
}

// Write sends the response with its own code as the HTTP status.
func Write(c *gin.Context, res Response) {
	c.JSON(res.Code, res)
}
