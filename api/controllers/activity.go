package controllers

import (
	"net/http"

	"github.com/trustpoints/trustpoints-backend/api/responses"
	"github.com/trustpoints/trustpoints-backend/internal/activity"
	"github.com/trustpoints/trustpoints-backend/pkg/logger"
)

func ActivityFeed(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		feed, err := svc.Feed(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, feed)
	}
}
