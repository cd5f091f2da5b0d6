package controllers

import (
	"net/http"

	"github.com/angelmondragon/supplychain-backend/api/responses"
	"github.com/angelmondragon/supplychain-backend/api/validators"
	"github.com/angelmondragon/supplychain-backend/internal/movementlogs"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

// RetailerListMovementLogs returns the caller's stock movement history,
// optionally narrowed with ?product_id=.
func RetailerListMovementLogs(svc movementlogs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "movement log")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var list *movementlogs.LogList
		if productID != nil {
			list, err = svc.ListForProduct(r.Context(), actor, *productID, params)
		} else {
			list, err = svc.ListForRetailer(r.Context(), actor, params)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
