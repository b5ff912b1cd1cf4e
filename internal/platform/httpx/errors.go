package httpx

import (
	"errors"
	"net/http"

	"github.com/opinian/opinian/internal/identity"
	"github.com/opinian/opinian/internal/themes"
	"github.com/opinian/opinian/internal/themes/export"
)

// RespondError maps domain errors onto HTTP problem responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, themes.ErrNotFound), errors.Is(err, identity.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, themes.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, themes.ErrTenantMismatch):
		Problem(w, http.StatusForbidden, "Tenant Mismatch", err.Error())
	case errors.Is(err, export.ErrInvalidDocument):
		Problem(w, http.StatusBadRequest, "Invalid Document", err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
