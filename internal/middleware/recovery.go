package middleware

import (
	"net/http"
	"runtime/debug"

	"hoa-backend/pkg/utils"

	"github.com/sirupsen/logrus"
)

func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				utils.Logger.WithFields(logrus.Fields{
					"panic":  rec,
					"method": r.Method,
					"path":   r.URL.Path,
					"stack":  string(debug.Stack()),
				}).Error("panic recovered")

				utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
					"Internal server error", nil)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
