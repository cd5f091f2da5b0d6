package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supplychain-backend/api/middleware"
	"github.com/angelmondragon/supplychain-backend/internal/payments"
	"github.com/angelmondragon/supplychain-backend/internal/reporting"
	"github.com/angelmondragon/supplychain-backend/internal/requests"
	"github.com/angelmondragon/supplychain-backend/pkg/auth"
	"github.com/angelmondragon/supplychain-backend/pkg/config"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func retailer() auth.Actor {
	return auth.Actor{UserID: uuid.New(), Username: "corner-shop", Role: enums.UserRoleRetailer}
}

func newRequest(method, target, body string, actor *auth.Actor, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if actor != nil {
		ctx = middleware.WithActor(ctx, *actor)
	}
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range params {
			routeCtx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

type stubRequests struct {
	created     requests.CreateRequestInput
	createErr   error
	listFilters requests.ListFilters
	listParams  pagination.Params
	listActor   auth.Actor
}

func (s *stubRequests) CreateRequest(ctx context.Context, actor auth.Actor, input requests.CreateRequestInput) (*requests.RequestDTO, error) {
	s.created = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &requests.RequestDTO{ID: uuid.New(), RetailerID: actor.UserID, Quantity: input.Quantity, Status: enums.RequestStatusPending}, nil
}

func (s *stubRequests) ChangeStatus(ctx context.Context, actor auth.Actor, requestID uuid.UUID, status string) (*requests.RequestDTO, error) {
	panic("unimplemented")
}

func (s *stubRequests) DeleteRequest(ctx context.Context, actor auth.Actor, requestID uuid.UUID) error {
	return nil
}

func (s *stubRequests) ListForRetailer(ctx context.Context, actor auth.Actor, filters requests.ListFilters, params pagination.Params) (*requests.RequestList, error) {
	s.listActor = actor
	s.listFilters = filters
	s.listParams = params
	return &requests.RequestList{}, nil
}

func (s *stubRequests) ListForDistributor(ctx context.Context, actor auth.Actor, filters requests.ListFilters, params pagination.Params) (*requests.RequestList, error) {
	panic("unimplemented")
}

func TestRetailerCreateRequest(t *testing.T) {
	logg := testLogger()
	actor := retailer()
	distributorID := uuid.New()
	productID := uuid.New()
	body := `{"distributor_id":"` + distributorID.String() + `","product_id":"` + productID.String() + `","quantity":4}`

	t.Run("missing actor", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RetailerCreateRequest(&stubRequests{}, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/", body, nil, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		bad := strings.Replace(body, `"quantity":4`, `"quantity":0`, 1)
		rec := httptest.NewRecorder()
		RetailerCreateRequest(&stubRequests{}, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/", bad, &actor, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeInvalidArgument), decodeError(t, rec).Code)
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		bad := strings.Replace(body, productID.String(), "not-a-uuid", 1)
		rec := httptest.NewRecorder()
		RetailerCreateRequest(&stubRequests{}, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/", bad, &actor, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("created", func(t *testing.T) {
		stub := &stubRequests{}
		rec := httptest.NewRecorder()
		RetailerCreateRequest(stub, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/", body, &actor, nil))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, requests.CreateRequestInput{DistributorID: distributorID, ProductID: productID, Quantity: 4}, stub.created)
	})

	t.Run("maps service errors", func(t *testing.T) {
		stub := &stubRequests{createErr: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
		rec := httptest.NewRecorder()
		RetailerCreateRequest(stub, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/", body, &actor, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "product not found", decodeError(t, rec).Message)
	})
}

func TestRetailerListRequestsParsesFilters(t *testing.T) {
	logg := testLogger()
	actor := retailer()

	stub := &stubRequests{}
	rec := httptest.NewRecorder()
	RetailerListRequests(stub, logg).ServeHTTP(rec, newRequest(http.MethodGet, "/?status=accepted&limit=5", "", &actor, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.listFilters.Status)
	assert.Equal(t, enums.RequestStatusAccepted, *stub.listFilters.Status)
	assert.Equal(t, 5, stub.listParams.Limit)
	assert.Equal(t, actor.UserID, stub.listActor.UserID)

	rec = httptest.NewRecorder()
	RetailerListRequests(stub, logg).ServeHTTP(rec, newRequest(http.MethodGet, "/?status=shipped", "", &actor, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetailerDeleteRequestInvalidID(t *testing.T) {
	actor := retailer()
	rec := httptest.NewRecorder()
	RetailerDeleteRequest(&stubRequests{}, testLogger()).ServeHTTP(rec, newRequest(http.MethodDelete, "/", "", &actor, map[string]string{"requestId": "nope"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	RetailerDeleteRequest(&stubRequests{}, testLogger()).ServeHTTP(rec, newRequest(http.MethodDelete, "/", "", &actor, map[string]string{"requestId": uuid.NewString()}))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type stubPayments struct {
	orderID uuid.UUID
	input   payments.ChargeInput
	err     error
}

func (s *stubPayments) ChargeOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input payments.ChargeInput) (*payments.ChargeOutcome, error) {
	s.orderID = orderID
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &payments.ChargeOutcome{OrderID: orderID, OrderStatus: enums.OrderStatusPaid}, nil
}

func (s *stubPayments) ListPaymentsForOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) ([]payments.PaymentDTO, error) {
	return []payments.PaymentDTO{}, nil
}

func TestRetailerChargeOrder(t *testing.T) {
	logg := testLogger()
	actor := retailer()
	orderID := uuid.New()
	params := map[string]string{"orderId": orderID.String()}
	body := `{"amount_minor":2500,"currency":"usd","payment_method":"pm_card_visa"}`

	t.Run("forwards idempotency key", func(t *testing.T) {
		stub := &stubPayments{}
		req := newRequest(http.MethodPost, "/", body, &actor, params)
		req.Header.Set("Idempotency-Key", " key-1 ")
		rec := httptest.NewRecorder()
		RetailerChargeOrder(stub, logg).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, orderID, stub.orderID)
		assert.Equal(t, payments.ChargeInput{AmountMinor: 2500, Currency: "usd", PaymentMethod: "pm_card_visa", IdempotencyKey: "key-1"}, stub.input)
	})

	t.Run("gateway failure", func(t *testing.T) {
		stub := &stubPayments{err: pkgerrors.Wrap(pkgerrors.CodeExternalService, errors.New("card_declined"), "payment gateway charge failed")}
		rec := httptest.NewRecorder()
		RetailerChargeOrder(stub, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/", body, &actor, params))
		assert.Equal(t, pkgerrors.MetadataFor(pkgerrors.CodeExternalService).HTTPStatus, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeExternalService), decodeError(t, rec).Code)
	})

	t.Run("bad currency", func(t *testing.T) {
		bad := strings.Replace(body, `"usd"`, `"dollars"`, 1)
		rec := httptest.NewRecorder()
		RetailerChargeOrder(&stubPayments{}, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/", bad, &actor, params))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type stubReports struct {
	query reporting.Query
}

func (s *stubReports) RequestHistory(ctx context.Context, actor auth.Actor, q reporting.Query) (*reporting.RequestReport, error) {
	s.query = q
	return &reporting.RequestReport{From: q.Start, To: q.End}, nil
}

func (s *stubReports) OrderHistory(ctx context.Context, actor auth.Actor, q reporting.Query) (*reporting.OrderReport, error) {
	return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "reports are limited to retailers and distributors")
}

func (s *stubReports) StockHistory(ctx context.Context, actor auth.Actor, q reporting.Query) (*reporting.StockReport, error) {
	panic("unimplemented")
}

func TestReportsParseRange(t *testing.T) {
	logg := testLogger()
	actor := retailer()
	stub := &stubReports{}

	rec := httptest.NewRecorder()
	RequestReport(stub, logg).ServeHTTP(rec, newRequest(http.MethodGet, "/?start=2026-03-01&end=2026-03-08T00:00:00Z", "", &actor, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), stub.query.Start)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), stub.query.End)

	rec = httptest.NewRecorder()
	RequestReport(stub, logg).ServeHTTP(rec, newRequest(http.MethodGet, "/?start=last-week", "", &actor, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	OrderReport(stub, logg).ServeHTTP(rec, newRequest(http.MethodGet, "/", "", &actor, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	logg := testLogger()

	rec := httptest.NewRecorder()
	HealthReady(cfg, logg, map[string]Pinger{"db": stubPinger{}, "redis": nil}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"disabled"`)

	rec = httptest.NewRecorder()
	HealthReady(cfg, logg, map[string]Pinger{"db": stubPinger{err: errors.New("refused")}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Supplychain-Env"))
}
