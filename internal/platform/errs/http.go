package errs

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPError maps a domain error onto the echo error the handlers
// return. Precondition failures carry the first missing step so the UI
// can route the user back to it.
func HTTPError(err error) error {
	switch KindOf(err) {
	case KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case KindPrecondition:
		return echo.NewHTTPError(http.StatusConflict, map[string]string{
			"message":       err.Error(),
			"redirect_step": MissingStep(err),
		})
	case KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case KindAuthorization:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
