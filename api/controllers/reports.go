package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/supplychain-backend/api/responses"
	"github.com/angelmondragon/supplychain-backend/api/validators"
	"github.com/angelmondragon/supplychain-backend/internal/reporting"
	"github.com/angelmondragon/supplychain-backend/pkg/auth"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

func RequestReport(svc reporting.Service, logg *logger.Logger) http.HandlerFunc {
	return report(svc, logg, func(ctx context.Context, actor auth.Actor, q reporting.Query) (any, error) {
		return svc.RequestHistory(ctx, actor, q)
	})
}

func OrderReport(svc reporting.Service, logg *logger.Logger) http.HandlerFunc {
	return report(svc, logg, func(ctx context.Context, actor auth.Actor, q reporting.Query) (any, error) {
		return svc.OrderHistory(ctx, actor, q)
	})
}

func StockReport(svc reporting.Service, logg *logger.Logger) http.HandlerFunc {
	return report(svc, logg, func(ctx context.Context, actor auth.Actor, q reporting.Query) (any, error) {
		return svc.StockHistory(ctx, actor, q)
	})
}

// report reads the optional ?start= and ?end= bounds.
func report(svc reporting.Service, logg *logger.Logger, run func(context.Context, auth.Actor, reporting.Query) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "reporting")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		start, err := validators.ParseQueryTime(r, "start")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		end, err := validators.ParseQueryTime(r, "end")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := run(r.Context(), actor, reporting.Query{Start: start, End: end})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
