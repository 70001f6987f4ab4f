package controllers

import (
	"net/http"

	"github.com/freshoils/freshoils-backend/api/responses"
	"github.com/freshoils/freshoils-backend/internal/orders"
	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
	"github.com/freshoils/freshoils-backend/pkg/logger"
)

// AdminAnalytics serves the order summary for the back-office dashboard.
func AdminAnalytics(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		result, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
