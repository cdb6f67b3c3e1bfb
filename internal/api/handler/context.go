package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ashifa-1/cms-backend/internal/core/ports"
)

// ctxPrincipal extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: a parseable user id
// and a non-empty role prove the middleware ran and the token carries a
// usable identity.
func ctxPrincipal(c echo.Context) (ports.Principal, error) {
	sub, _ := c.Get("user_id").(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return ports.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}

	role, _ := c.Get("role").(string)
	if role == "" {
		return ports.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	return ports.Principal{UserID: id, Role: role}, nil
}

// pathID parses the :id path parameter as a UUID.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
