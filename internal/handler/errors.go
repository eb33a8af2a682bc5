// Package handler contains the HTTP layer: request decoding, input
// validation and the mapping of engine errors onto status codes.  No
// business rules live here.
package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/booking"
)

// writeError translates an engine error into an HTTP response.  Domain
// rules map to 4xx, gateway trouble to 502/503, anything unrecognized
// is logged and returned as a generic 500 so internals never leak.
func writeError(c echo.Context, err error) error {
	if ve, ok := booking.AsValidation(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation_failed",
			"fields": ve.Fields,
		})
	}

	switch {
	case errors.Is(err, booking.ErrCategoryNotFound),
		errors.Is(err, booking.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrCapacityExceeded),
		errors.Is(err, booking.ErrAlreadyPaid),
		errors.Is(err, booking.ErrBookingCancelled),
		errors.Is(err, booking.ErrRefundWindowClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrGatewayUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment gateway unavailable"})
	case errors.Is(err, booking.ErrRefundFailed):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "refund could not be processed"})
	}

	log.Printf("handler: %s %s failed: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
