package controllers

import (
	"net/http"

	"github.com/trustpoints/trustpoints-backend/api/responses"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
)

func ItemCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, enums.AllItemCategories())
	}
}
