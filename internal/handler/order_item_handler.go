package handler

import (
	"net/http"
	"strconv"

	"orderitems/internal/usecase"

	"github.com/labstack/echo/v4"
)

// POST/PUTの入力。3項目とも必須
// product_idは0以下でも受けて、無ければ商品が見つからない扱いにする
type OrderItemWriteRequest struct {
	OrderID   int64  `json:"order_id" validate:"required,gt=0"`
	ProductID *int64 `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// PATCHの入力。送られた項目だけ検証・更新する
type OrderItemPatchRequest struct {
	OrderID   usecase.Optional[int64] `json:"order_id" validate:"omitempty,gt=0"`
	ProductID usecase.Optional[int64] `json:"product_id"`
	Quantity  usecase.Optional[int64] `json:"quantity" validate:"omitempty,gt=0"`
}

// /order_items
type OrderItemHandler struct {
	uc *usecase.OrderItemUsecase
}

// DI
func NewOrderItemHandler(uc *usecase.OrderItemUsecase) *OrderItemHandler {
	return &OrderItemHandler{uc: uc}
}

func (h *OrderItemHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/order_items")

	//末尾スラッシュあり/なし両方
	g.GET("", h.list)
	g.GET("/", h.list)
	g.POST("", h.create)
	g.POST("/", h.create)

	g.GET("/:item_id", h.detail)
	g.PUT("/:item_id", h.update)
	g.PATCH("/:item_id", h.patch)
	g.DELETE("/:item_id", h.delete)
}

func itemID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// bind→validate
func bindAndValidate(c echo.Context, req interface{}) (string, bool) {
	if err := c.Bind(req); err != nil {
		return "invalid body", false
	}
	if err := c.Validate(req); err != nil {
		return err.Error(), false
	}
	return "", true
}

func (h *OrderItemHandler) list(c echo.Context) error {
	items, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *OrderItemHandler) detail(c echo.Context) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "invalid item_id")
	}

	it, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *OrderItemHandler) create(c echo.Context) error {
	var req OrderItemWriteRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}

	it, err := h.uc.Create(c.Request().Context(), usecase.CreateOrderItemInput{
		OrderID:   req.OrderID,
		ProductID: *req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *OrderItemHandler) update(c echo.Context) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "invalid item_id")
	}

	var req OrderItemWriteRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}

	it, err := h.uc.Update(c.Request().Context(), id, usecase.UpdateOrderItemInput{
		OrderID:   req.OrderID,
		ProductID: *req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *OrderItemHandler) patch(c echo.Context) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "invalid item_id")
	}

	var req OrderItemPatchRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}

	it, err := h.uc.PartialUpdate(c.Request().Context(), id, usecase.PatchOrderItemInput{
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *OrderItemHandler) delete(c echo.Context) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "invalid item_id")
	}

	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
