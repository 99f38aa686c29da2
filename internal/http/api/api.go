package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/iqamah"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/rangestore"
)

type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

type HandlerFunc func(ctx *gin.Context) (any, *Error)

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func BadRequest(err error) *Error {
	return &Error{Code: http.StatusBadRequest, Message: err.Error()}
}

// FromError maps a domain error onto an HTTP status.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var storeErr *rangestore.Error
	switch {
	case errors.Is(err, iqamah.ErrInvalidRange):
		return &Error{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.As(err, &storeErr):
		// echo the backend's client errors, anything else is a bad gateway
		if storeErr.Status >= 400 && storeErr.Status < 500 {
			return &Error{Code: storeErr.Status, Message: storeErr.Message}
		}
		return &Error{Code: http.StatusBadGateway, Message: storeErr.Message}
	case errors.Is(err, ack.ErrNotConnected):
		return &Error{Code: http.StatusServiceUnavailable, Message: err.Error()}
	case errors.Is(err, ack.ErrBusy):
		return &Error{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: http.StatusGatewayTimeout, Message: err.Error()}
	}

	log.Error().Err(err).Msg("unhandled error")
	return &Error{Code: http.StatusInternalServerError, Message: "internal server error"}
}
