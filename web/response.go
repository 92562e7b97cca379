package web

import (
	"errors"
	"net/http"

	"coincafe/service"

	"github.com/gin-gonic/gin"
)

// Response is the envelope for every API reply
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Code:    status,
		Message: message,
	})
}

func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

// respondDomainError maps service-layer errors onto HTTP statuses
func respondDomainError(c *gin.Context, err error) {
	switch {
	case service.IsLimitExceeded(err):
		respondError(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrRuleNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrSelfTransfer):
		respondBadRequest(c, err.Error())
	case errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrRoomNotActive):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotRoomMember):
		respondError(c, http.StatusForbidden, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
