// Package allow enforces role allow-lists on route groups. The decision
// itself lives in internal/access; this middleware only translates a
// false answer into a 403.
package allow

import (
	"log/slog"
	"net/http"

	"dojohub/entity"
	"dojohub/internal/access"
	"dojohub/lib/api/cont"
	"dojohub/lib/api/response"
	"dojohub/lib/sl"

	"github.com/go-chi/render"
)

func Roles(log *slog.Logger, roles ...entity.Role) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.allow")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			user := cont.GetUser(r.Context())
			if !access.ValidateAccess(roles, user.Role) {
				log.With(
					mod,
					slog.String("user", user.Email),
					slog.String("role", string(user.Role)),
					slog.String("path", r.URL.Path),
				).Warn("access denied")
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("Access denied"))
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
