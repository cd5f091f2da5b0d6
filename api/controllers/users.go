package controllers

import (
	"net/http"

	"github.com/angelmondragon/supplychain-backend/api/responses"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

// ListDistributors lets retailers pick who to request stock from.
func ListDistributors(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return listUsersByRole(svc, logg, enums.UserRoleDistributor)
}

// ListDeliveryAgents lets distributors pick an agent when creating an order.
func ListDeliveryAgents(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return listUsersByRole(svc, logg, enums.UserRoleDelivery)
}

func listUsersByRole(svc users.Service, logg *logger.Logger, role enums.UserRole) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "users")
			return
		}
		if _, ok := requireActor(w, r, logg); !ok {
			return
		}
		list, err := svc.ListByRole(r.Context(), role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
