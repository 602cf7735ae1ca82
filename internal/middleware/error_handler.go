package middleware

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	// Server faults indicate a ledger invariant violation or infrastructure
	// failure and need operator attention, not just a client response.
	if code >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %s", c.Request().Method, c.Request().URL.Path, msg)
	}

	_ = c.JSON(code, map[string]string{"message": msg})
}
