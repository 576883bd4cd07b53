package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"bakery-shop-backend/internal/dto"
	"bakery-shop-backend/internal/service"
)

var kindStatus = map[service.Kind]int{
	service.KindValidation:         http.StatusBadRequest,
	service.KindNotFound:           http.StatusNotFound,
	service.KindForbidden:          http.StatusForbidden,
	service.KindConflict:           http.StatusBadRequest,
	service.KindInvalidState:       http.StatusBadRequest,
	service.KindInsufficientPoints: http.StatusBadRequest,
}

// respondError writes the error envelope. Service errors map to their
// status; anything else is logged and reported as a 500.
func respondError(c *gin.Context, err error) {
	var se *service.Error
	status, known := 0, false
	if errors.As(err, &se) {
		status, known = kindStatus[se.Kind]
	}
	if !known {
		zctx.From(c.Request.Context()).Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.Fail("Server Error"))
		return
	}

	msg := se.Message
	if len(se.Reasons) > 0 {
		msg = strings.Join(se.Reasons, ", ")
	}
	c.JSON(status, dto.Fail(msg))
}

// badRequest reports a body that could not be decoded.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.Fail("Invalid request body: "+err.Error()))
}
