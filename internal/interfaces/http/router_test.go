package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megaventa/pos-api/internal/application/dto"
	"github.com/megaventa/pos-api/internal/application/inventory"
	"github.com/megaventa/pos-api/internal/application/lookup"
	"github.com/megaventa/pos-api/internal/application/purchase"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/infrastructure/memory"
	"github.com/megaventa/pos-api/internal/infrastructure/redis"
	apphttp "github.com/megaventa/pos-api/internal/interfaces/http"
	pkgjwt "github.com/megaventa/pos-api/pkg/jwt"
	"github.com/megaventa/pos-api/pkg/logger"
)

const testJWTSecret = "test-secret-key-for-unit-tests"

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type testApp struct {
	app       *fiber.App
	tenantID  uuid.UUID
	userID    uuid.UUID
	warehouse uuid.UUID
}

// buildTestApp arma el router completo sobre el almacén en memoria.
// withRedis habilita Idempotency-Key con un Redis en memoria.
func buildTestApp(t *testing.T, withRedis bool) *testApp {
	t.Helper()
	st := memory.NewStore()
	ta := &testApp{tenantID: uuid.New(), userID: uuid.New(), warehouse: uuid.New()}
	st.AddWarehouse(entity.Warehouse{ID: ta.warehouse, TenantID: ta.tenantID, Name: "Central"})

	log := logger.Nop()
	ledger := inventory.NewLedger(st, false, log)
	cache := lookup.NewCache(st.Lookups(), log)
	deps := apphttp.RouterDeps{
		InventoryUC:     inventory.NewUseCase(st, ledger, log),
		ReplenishmentUC: inventory.NewReplenishmentUseCase(st),
		PurchaseUC:      purchase.NewUseCase(st, ledger, cache, decimal.RequireFromString("0.16"), log),
		JWTSecret:       testJWTSecret,
		Log:             log,
	}
	if withRedis {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		deps.Idempotency = redis.NewIdempotencyStoreWithClient(client, 0)
	}

	ta.app = fiber.New()
	apphttp.Router(ta.app, deps)
	return ta
}

func (ta *testApp) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

// call lanza la petición con los headers de identidad del tenant de prueba.
func (ta *testApp) call(t *testing.T, method, path string, body any, extra ...string) (*http.Response, []byte) {
	t.Helper()
	h := map[string]string{
		apphttp.HeaderTenantID: ta.tenantID.String(),
		apphttp.HeaderUserID:   ta.userID.String(),
	}
	for i := 0; i+1 < len(extra); i += 2 {
		h[extra[i]] = extra[i+1]
	}
	return ta.do(t, method, path, body, h)
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (ta *testApp) createPurchase(t *testing.T, number string, lines ...map[string]any) dto.PurchaseResponse {
	t.Helper()
	body := map[string]any{
		"supplier_id":  uuid.NewString(),
		"warehouse_id": ta.warehouse.String(),
		"number":       number,
		"lines":        lines,
	}
	resp, raw := ta.call(t, http.MethodPost, "/api/purchases", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	return decode[dto.PurchaseResponse](t, raw)
}

func line(variant uuid.UUID, qty, cost float64) map[string]any {
	return map[string]any{"variant_id": variant.String(), "quantity": qty, "unit_cost": cost}
}

func receiveBody(lines ...map[string]any) map[string]any {
	return map[string]any{"lines": lines}
}

// ──────────────────────────────────────────────────────────────────────────────
// Identidad
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth_SinIdentidad(t *testing.T) {
	ta := buildTestApp(t, false)
	resp, _ := ta.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestTenantMiddleware_SinIdentidadRetorna401(t *testing.T) {
	ta := buildTestApp(t, false)
	resp, raw := ta.do(t, http.MethodGet, "/api/purchases", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", decode[dto.ErrorResponse](t, raw).Code)
}

func TestTenantMiddleware_HeadersMalformados(t *testing.T) {
	ta := buildTestApp(t, false)
	cases := map[string]map[string]string{
		"tenant no uuid":  {apphttp.HeaderTenantID: "abc", apphttp.HeaderUserID: uuid.NewString()},
		"falta usuario":   {apphttp.HeaderTenantID: uuid.NewString()},
		"tenant nulo":     {apphttp.HeaderTenantID: uuid.Nil.String(), apphttp.HeaderUserID: uuid.NewString()},
		"bearer inválido": {"Authorization": "Bearer no-es-un-jwt"},
		"sin esquema":     {"Authorization": "token"},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			resp, _ := ta.do(t, http.MethodGet, "/api/purchases", nil, h)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestTenantMiddleware_BearerToken(t *testing.T) {
	ta := buildTestApp(t, false)
	tok, err := pkgjwt.Generate(testJWTSecret, ta.tenantID.String(), ta.userID.String(), "megaventa-test", 60)
	require.NoError(t, err)

	resp, raw := ta.do(t, http.MethodGet, "/api/purchases", nil, map[string]string{"Authorization": "Bearer " + tok})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	otro, err := pkgjwt.Generate("otro-secret", ta.tenantID.String(), ta.userID.String(), "x", 60)
	require.NoError(t, err)
	resp, _ = ta.do(t, http.MethodGet, "/api/purchases", nil, map[string]string{"Authorization": "Bearer " + otro})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Compras
// ──────────────────────────────────────────────────────────────────────────────

func TestPurchase_RecepcionCompleta(t *testing.T) {
	ta := buildTestApp(t, false)
	variant := uuid.New()
	po := ta.createPurchase(t, "OC-1", line(variant, 20, 3))
	assert.Equal(t, entity.PurchaseStatusPendiente, po.Status)

	resp, raw := ta.call(t, http.MethodPut, "/api/purchases/"+po.ID+"/receive", receiveBody(map[string]any{
		"variant_id": variant.String(), "quantity": 20,
	}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	rcpt := decode[dto.ReceiptResponse](t, raw)
	assert.Equal(t, entity.PurchaseStatusRecibida, rcpt.Status)
	assert.Equal(t, 1, rcpt.Received)
	require.Len(t, rcpt.Movements, 1)

	resp, raw = ta.call(t, http.MethodGet, "/api/inventory/"+ta.warehouse.String()+"/"+variant.String(), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	inv := decode[dto.InventoryResponse](t, raw)
	assert.True(t, inv.StockOnHand.Equal(decimal.NewFromInt(20)))
	assert.True(t, inv.WeightedAverageCost.Equal(decimal.NewFromInt(3)))

	// Segunda recepción
	resp, raw = ta.call(t, http.MethodPut, "/api/purchases/"+po.ID+"/receive", receiveBody(map[string]any{
		"variant_id": variant.String(), "quantity": 20,
	}))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_RECEIVED", decode[dto.ErrorResponse](t, raw).Code)
}

func TestPurchase_RecepcionParcialRetorna207(t *testing.T) {
	ta := buildTestApp(t, false)
	variant := uuid.New()
	po := ta.createPurchase(t, "OC-2", line(variant, 10, 5))

	resp, raw := ta.call(t, http.MethodPut, "/api/purchases/"+po.ID+"/receive", receiveBody(
		map[string]any{"variant_id": variant.String(), "quantity": 8},
		map[string]any{"variant_id": uuid.NewString(), "quantity": 1},
	))
	require.Equal(t, fiber.StatusMultiStatus, resp.StatusCode, string(raw))
	rcpt := decode[dto.ReceiptResponse](t, raw)
	assert.Equal(t, 1, rcpt.Received)
	assert.Equal(t, 1, rcpt.Failed)
	require.Len(t, rcpt.Failures, 1)
	assert.Equal(t, purchase.FailureNotFound, rcpt.Failures[0].Code)
	assert.Equal(t, entity.PurchaseStatusRecibida, rcpt.Status)
}

func TestPurchase_Validaciones(t *testing.T) {
	ta := buildTestApp(t, false)

	resp, raw := ta.call(t, http.MethodPost, "/api/purchases", map[string]any{
		"supplier_id": uuid.NewString(), "warehouse_id": ta.warehouse.String(), "number": "OC-3",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, raw).Code)

	resp, _ = ta.call(t, http.MethodGet, "/api/purchases/no-es-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = ta.call(t, http.MethodGet, "/api/purchases?status=ABIERTA", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, raw = ta.call(t, http.MethodPost, "/api/purchases", map[string]any{
		"supplier_id": uuid.NewString(), "warehouse_id": uuid.NewString(), "number": "OC-4",
		"lines": []map[string]any{line(uuid.New(), 1, 1)},
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, string(raw))
}

func TestPurchase_OtroTenantNoLaVe(t *testing.T) {
	ta := buildTestApp(t, false)
	po := ta.createPurchase(t, "OC-5", line(uuid.New(), 1, 1))

	resp, _ := ta.do(t, http.MethodGet, "/api/purchases/"+po.ID, nil, map[string]string{
		apphttp.HeaderTenantID: uuid.NewString(),
		apphttp.HeaderUserID:   uuid.NewString(),
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, raw := ta.call(t, http.MethodGet, "/api/purchases/"+po.ID+"?lines=true", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.PurchaseResponse](t, raw).Lines, 1)
}

func TestPurchase_CancelarYEliminar(t *testing.T) {
	ta := buildTestApp(t, false)
	variant := uuid.New()
	po := ta.createPurchase(t, "OC-6", line(variant, 1, 1))

	resp, raw := ta.call(t, http.MethodPut, "/api/purchases/"+po.ID+"/cancel", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, entity.PurchaseStatusCancelada, decode[dto.PurchaseResponse](t, raw).Status)

	resp, raw = ta.call(t, http.MethodPut, "/api/purchases/"+po.ID+"/receive", receiveBody(map[string]any{
		"variant_id": variant.String(), "quantity": 1,
	}))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", decode[dto.ErrorResponse](t, raw).Code)

	resp, _ = ta.call(t, http.MethodDelete, "/api/purchases/"+po.ID, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp, _ = ta.call(t, http.MethodGet, "/api/purchases/"+po.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotency-Key
// ──────────────────────────────────────────────────────────────────────────────

func TestIdempotency_ClaveRepetidaRetorna409(t *testing.T) {
	ta := buildTestApp(t, true)
	variant := uuid.New()
	po := ta.createPurchase(t, "OC-7", line(variant, 5, 2))
	body := receiveBody(map[string]any{"variant_id": variant.String(), "quantity": 5})

	resp, raw := ta.call(t, http.MethodPut, "/api/purchases/"+po.ID+"/receive", body, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	resp, raw = ta.call(t, http.MethodPut, "/api/purchases/"+po.ID+"/receive", body, apphttp.HeaderIdempotencyKey, "k-1")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_REQUEST", decode[dto.ErrorResponse](t, raw).Code)
}

func TestIdempotency_FallaLiberaLaClave(t *testing.T) {
	ta := buildTestApp(t, true)
	body := receiveBody(map[string]any{"variant_id": uuid.NewString(), "quantity": 1})
	path := "/api/purchases/" + uuid.NewString() + "/receive"

	resp, _ := ta.call(t, http.MethodPut, path, body, apphttp.HeaderIdempotencyKey, "k-2")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = ta.call(t, http.MethodPut, path, body, apphttp.HeaderIdempotencyKey, "k-2")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "la clave se liberó tras la falla")
}

// ──────────────────────────────────────────────────────────────────────────────
// Inventario
// ──────────────────────────────────────────────────────────────────────────────

func TestInventory_AltaAjusteYKardex(t *testing.T) {
	ta := buildTestApp(t, false)
	variant := uuid.New()

	resp, raw := ta.call(t, http.MethodPost, "/api/inventory", map[string]any{
		"warehouse_id": ta.warehouse.String(), "variant_id": variant.String(),
		"initial_stock": 10, "unit_cost": 4, "stock_minimum": 5, "stock_maximum": 30,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))

	resp, _ = ta.call(t, http.MethodPost, "/api/inventory", map[string]any{
		"warehouse_id": ta.warehouse.String(), "variant_id": variant.String(), "initial_stock": 1, "unit_cost": 1,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, raw = ta.call(t, http.MethodPost, "/api/inventory/adjustments", map[string]any{
		"warehouse_id": ta.warehouse.String(), "variant_id": variant.String(), "type": "SALIDA", "quantity": 6,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = ta.call(t, http.MethodPost, "/api/inventory/adjustments", map[string]any{
		"warehouse_id": ta.warehouse.String(), "variant_id": variant.String(), "type": "SALIDA", "quantity": 100,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, raw).Code)

	resp, raw = ta.call(t, http.MethodGet, "/api/inventory?low_stock=true", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	list := decode[dto.InventoryListResponse](t, raw)
	require.Len(t, list.Items, 1)
	assert.True(t, list.Items[0].StockOnHand.Equal(decimal.NewFromInt(4)))

	resp, raw = ta.call(t, http.MethodGet, "/api/inventory/movements/"+ta.warehouse.String()+"?type=SALIDA", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.Len(t, decode[dto.MovementListResponse](t, raw).Items, 1)

	resp, raw = ta.call(t, http.MethodGet, "/api/inventory/replenishment", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	rep := decode[struct {
		Total int `json:"total"`
	}](t, raw)
	assert.Equal(t, 1, rep.Total)
}

func TestInventory_Umbrales(t *testing.T) {
	ta := buildTestApp(t, false)
	variant := uuid.New()
	path := "/api/inventory/" + ta.warehouse.String() + "/" + variant.String()

	resp, _ := ta.call(t, http.MethodPut, path+"/thresholds", map[string]any{"stock_minimum": 2, "stock_maximum": 8})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	_, _ = ta.call(t, http.MethodPost, "/api/inventory", map[string]any{
		"warehouse_id": ta.warehouse.String(), "variant_id": variant.String(),
	})
	resp, _ = ta.call(t, http.MethodPut, path+"/thresholds", map[string]any{"stock_minimum": 9, "stock_maximum": 3})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, raw := ta.call(t, http.MethodPut, path+"/thresholds", map[string]any{"stock_minimum": 2, "stock_maximum": 8})
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode, string(raw))

	resp, raw = ta.call(t, http.MethodGet, path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	inv := decode[dto.InventoryResponse](t, raw)
	assert.True(t, inv.StockMinimum.Equal(decimal.NewFromInt(2)))
	assert.True(t, inv.StockMaximum.Equal(decimal.NewFromInt(8)))
}
