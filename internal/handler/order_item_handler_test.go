package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orderitems/internal/config"
	"orderitems/internal/domain/model"
	"orderitems/internal/handler"
	"orderitems/internal/infra/db"
	infrarepo "orderitems/internal/infra/repository"
	"orderitems/internal/server"
	"orderitems/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// レスポンスの明細
type orderItemDTO struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Order     *struct {
		ID int64 `json:"id"`
	} `json:"order"`
	Product *struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"product"`
}

type errorDTO struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type testApp struct {
	e       *echo.Echo
	db      *gorm.DB
	order   model.Order
	order2  model.Order
	product model.Product
	other   model.Product
}

// インメモリSQLiteでアプリ全体を組み立てる
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		DBDriver:  config.DriverSQLite,
		SQLiteDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString()),
		LogLevel:  "error",
	}
	gdb, err := db.Connect(cfg, log)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	a := &testApp{
		db:      gdb,
		order:   model.Order{UserID: 1, Status: model.OrderStatusPending},
		order2:  model.Order{UserID: 1, Status: model.OrderStatusPending},
		product: model.Product{Name: "Widget", Price: decimal.RequireFromString("9.99"), IsActive: true},
		other:   model.Product{Name: "Gadget", Price: decimal.RequireFromString("20.00"), IsActive: true},
	}
	require.NoError(t, gdb.Create(&a.order).Error)
	require.NoError(t, gdb.Create(&a.order2).Error)
	require.NoError(t, gdb.Create(&a.product).Error)
	require.NoError(t, gdb.Create(&a.other).Error)

	uc := usecase.NewOrderItemUsecase(
		infrarepo.NewTxManagerGorm(gdb),
		infrarepo.NewProductGormRepository(gdb),
		log,
	)
	a.e = server.New(log, 5*time.Second, server.Handlers{
		OrderItems: handler.NewOrderItemHandler(uc),
		Health:     handler.NewHealthHandler(func(ctx context.Context) error { return db.Ping(ctx, gdb) }),
	})
	return a
}

func (a *testApp) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decodeItem(t *testing.T, rec *httptest.ResponseRecorder) orderItemDTO {
	t.Helper()
	var it orderItemDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &it), rec.Body.String())
	return it
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDTO {
	t.Helper()
	var e errorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func (a *testApp) createItem(t *testing.T, qty int64) orderItemDTO {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/order_items/",
		fmt.Sprintf(`{"order_id":%d,"product_id":%d,"quantity":%d}`, a.order.ID, a.product.ID, qty))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeItem(t, rec)
}

func (a *testApp) countItems(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Model(&model.OrderItem{}).Count(&n).Error)
	return n
}

// 作成→部分更新→削除→404 の一連の流れ
func TestOrderItems_FullFlow(t *testing.T) {
	a := newTestApp(t)

	//Create
	created := a.createItem(t, 3)
	assert.NotZero(t, created.ID)
	assert.Equal(t, int64(3), created.Quantity)
	assert.True(t, created.UnitPrice.Equal(decimal.RequireFromString("9.99")))
	require.NotNil(t, created.Order)
	require.NotNil(t, created.Product)
	assert.Equal(t, a.product.ID, created.Product.ID)

	//Get
	rec := a.do(t, http.MethodGet, fmt.Sprintf("/order_items/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeItem(t, rec).ID)

	//Patch（quantityだけ）
	rec = a.do(t, http.MethodPatch, fmt.Sprintf("/order_items/%d", created.ID), `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decodeItem(t, rec)
	assert.Equal(t, int64(5), patched.Quantity)
	assert.Equal(t, created.OrderID, patched.OrderID)
	assert.Equal(t, created.ProductID, patched.ProductID)
	assert.True(t, patched.UnitPrice.Equal(decimal.RequireFromString("9.99")))

	//Delete
	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/order_items/%d", created.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	//削除後は404
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/order_items/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, fmt.Sprintf("Order item with id=%d not found.", created.ID), e.Error)
	assert.Equal(t, "NOT_FOUND", e.Code)

	//2回目のDELETEも404
	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/order_items/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderItems_List(t *testing.T) {
	a := newTestApp(t)

	rec := a.do(t, http.MethodGet, "/order_items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	a.createItem(t, 1)
	a.createItem(t, 2)

	for _, path := range []string{"/order_items", "/order_items/"} {
		rec = a.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var items []orderItemDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		require.Len(t, items, 2)
		assert.Equal(t, int64(1), items[0].Quantity)
		assert.Equal(t, int64(2), items[1].Quantity)
		require.NotNil(t, items[0].Product)
		assert.Equal(t, "Widget", items[0].Product.Name)
	}
}

// 単価は文字列の10進数で返す
func TestOrderItems_UnitPriceIsDecimalString(t *testing.T) {
	a := newTestApp(t)
	a.createItem(t, 2)

	rec := a.do(t, http.MethodGet, "/order_items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unit_price":"9.99"`)
}

func TestOrderItems_Create_ProductNotFound(t *testing.T) {
	a := newTestApp(t)

	rec := a.do(t, http.MethodPost, "/order_items",
		fmt.Sprintf(`{"order_id":%d,"product_id":999,"quantity":1}`, a.order.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product with id=999 not found.", decodeError(t, rec).Error)
	assert.Zero(t, a.countItems(t))
}

// 注文が無いとFK違反で400、何も残らない
func TestOrderItems_Create_UnknownOrder(t *testing.T) {
	a := newTestApp(t)

	rec := a.do(t, http.MethodPost, "/order_items",
		fmt.Sprintf(`{"order_id":999,"product_id":%d,"quantity":1}`, a.product.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeError(t, rec)
	assert.True(t, strings.HasPrefix(e.Error, "Error creating order item: "), e.Error)
	assert.Equal(t, "BAD_REQUEST", e.Code)
	assert.Zero(t, a.countItems(t))
}

func TestOrderItems_Create_InvalidRequests(t *testing.T) {
	a := newTestApp(t)

	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"broken json", `{"order_id":`, "invalid body"},
		{"string quantity", `{"order_id":1,"product_id":1,"quantity":"3"}`, "invalid body"},
		{"zero quantity", fmt.Sprintf(`{"order_id":%d,"product_id":%d,"quantity":0}`, a.order.ID, a.product.ID), "quantity"},
		{"negative quantity", fmt.Sprintf(`{"order_id":%d,"product_id":%d,"quantity":-1}`, a.order.ID, a.product.ID), "quantity must be > 0"},
		{"missing product", fmt.Sprintf(`{"order_id":%d,"quantity":1}`, a.order.ID), "product_id is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/order_items", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec).Error, tc.msg)
		})
	}
	assert.Zero(t, a.countItems(t))
}

// PUTで商品を変えても単価は変わらない
func TestOrderItems_Put_KeepsUnitPrice(t *testing.T) {
	a := newTestApp(t)
	created := a.createItem(t, 3)

	rec := a.do(t, http.MethodPut, fmt.Sprintf("/order_items/%d", created.ID),
		fmt.Sprintf(`{"order_id":%d,"product_id":%d,"quantity":4}`, a.order2.ID, a.other.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	it := decodeItem(t, rec)
	assert.Equal(t, a.order2.ID, it.OrderID)
	assert.Equal(t, a.other.ID, it.ProductID)
	assert.Equal(t, int64(4), it.Quantity)
	assert.True(t, it.UnitPrice.Equal(decimal.RequireFromString("9.99")))
	require.NotNil(t, it.Product)
	assert.Equal(t, "Gadget", it.Product.Name)
}

func TestOrderItems_Put_MissingField(t *testing.T) {
	a := newTestApp(t)
	created := a.createItem(t, 3)

	rec := a.do(t, http.MethodPut, fmt.Sprintf("/order_items/%d", created.ID), `{"quantity":4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderItems_Put_NotFound(t *testing.T) {
	a := newTestApp(t)

	rec := a.do(t, http.MethodPut, "/order_items/999",
		fmt.Sprintf(`{"order_id":%d,"product_id":%d,"quantity":1}`, a.order.ID, a.product.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderItems_Put_UnknownProduct(t *testing.T) {
	a := newTestApp(t)
	created := a.createItem(t, 3)

	rec := a.do(t, http.MethodPut, fmt.Sprintf("/order_items/%d", created.ID),
		fmt.Sprintf(`{"order_id":%d,"product_id":999,"quantity":1}`, a.order.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	//変更は残らない
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/order_items/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, a.product.ID, decodeItem(t, rec).ProductID)
}

func TestOrderItems_Patch_EmptyBody(t *testing.T) {
	a := newTestApp(t)
	created := a.createItem(t, 3)

	rec := a.do(t, http.MethodPatch, fmt.Sprintf("/order_items/%d", created.ID), `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	it := decodeItem(t, rec)
	assert.Equal(t, int64(3), it.Quantity)
	assert.Equal(t, created.ProductID, it.ProductID)
}

func TestOrderItems_Patch_InvalidRequests(t *testing.T) {
	a := newTestApp(t)
	created := a.createItem(t, 3)
	path := fmt.Sprintf("/order_items/%d", created.ID)

	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"null quantity", `{"quantity":null}`, "invalid body"},
		{"zero quantity", `{"quantity":0}`, "quantity must be > 0"},
		{"negative order", `{"order_id":-1}`, "order_id must be > 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPatch, path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec).Error, tc.msg)
		})
	}

	rec := a.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), decodeItem(t, rec).Quantity)
}

func TestOrderItems_Patch_UnknownOrder(t *testing.T) {
	a := newTestApp(t)
	created := a.createItem(t, 3)

	rec := a.do(t, http.MethodPatch, fmt.Sprintf("/order_items/%d", created.ID), `{"order_id":999}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(decodeError(t, rec).Error, "Error updating order item: "))
}

func TestOrderItems_Patch_NotFound(t *testing.T) {
	a := newTestApp(t)

	rec := a.do(t, http.MethodPatch, "/order_items/999", `{"quantity":2}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order item with id=999 not found.", decodeError(t, rec).Error)
}

// 0以下のidは存在しないidと同じく404
func TestOrderItems_NonPositiveItemID(t *testing.T) {
	a := newTestApp(t)

	cases := []struct {
		method string
		path   string
		body   string
		id     int64
	}{
		{http.MethodGet, "/order_items/-1", "", -1},
		{http.MethodDelete, "/order_items/0", "", 0},
		{http.MethodPatch, "/order_items/-5", `{"quantity":2}`, -5},
		{http.MethodPut, "/order_items/0", fmt.Sprintf(`{"order_id":%d,"product_id":%d,"quantity":1}`, a.order.ID, a.product.ID), 0},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := a.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, fmt.Sprintf("Order item with id=%d not found.", tc.id), e.Error)
			assert.Equal(t, "NOT_FOUND", e.Code)
		})
	}
}

func TestOrderItems_Create_NonPositiveProductID(t *testing.T) {
	a := newTestApp(t)

	for _, pid := range []int64{-3, 0} {
		rec := a.do(t, http.MethodPost, "/order_items",
			fmt.Sprintf(`{"order_id":%d,"product_id":%d,"quantity":1}`, a.order.ID, pid))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		e := decodeError(t, rec)
		assert.Equal(t, fmt.Sprintf("Product with id=%d not found.", pid), e.Error)
		assert.Equal(t, "NOT_FOUND", e.Code)
	}
	assert.Zero(t, a.countItems(t))
}

func TestOrderItems_InvalidItemID(t *testing.T) {
	a := newTestApp(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := a.do(t, method, "/order_items/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid item_id", decodeError(t, rec).Error)
	}
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)

	rec := a.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness_Unavailable(t *testing.T) {
	e := echo.New()
	handler.NewHealthHandler(func(context.Context) error { return errors.New("db down") }).RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","error":"db down"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	a := newTestApp(t)
	a.do(t, http.MethodGet, "/order_items", "")

	rec := a.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/order_items",status="200"}`)
}

func TestRequestID(t *testing.T) {
	a := newTestApp(t)

	rec := a.do(t, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
