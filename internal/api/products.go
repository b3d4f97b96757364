package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/quaddelta/catalog/internal/catalog"
	"github.com/quaddelta/catalog/internal/webserver"
)

type productPayload struct {
	Sku      string  `json:"sku"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	IsActive bool    `json:"isActive"`
}

type ProductHandler struct {
	store *catalog.ProductStore
}

func NewProductHandler(store *catalog.ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// RegisterProductRoutes registers the product CRUD endpoints
func RegisterProductRoutes(g *echo.Group, store *catalog.ProductStore) {
	h := NewProductHandler(store)
	g.GET("/products", h.List)
	g.GET("/products/:id", h.Get)
	g.POST("/products", h.Create)
	g.PUT("/products/:id", h.Update)
	g.DELETE("/products/:id", h.Delete)
}

func (h *ProductHandler) List(c echo.Context) error {
	rows, err := h.store.List(c.Request().Context())
	if err != nil {
		return storeFail(c, err)
	}
	return webserver.OK(c, rows)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID")
	}
	p, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		return storeFail(c, err)
	}
	return webserver.OK(c, p)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product")
	}
	p, err := h.store.Create(c.Request().Context(), catalog.CreateInput{
		Sku:   payload.Sku,
		Name:  payload.Name,
		Price: payload.Price,
	})
	if err != nil {
		return storeFail(c, err)
	}
	return webserver.Created(c, fmt.Sprintf("/api/products/%d", p.ID), p)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID")
	}
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product")
	}
	p, err := h.store.Update(c.Request().Context(), id, catalog.UpdateInput{
		Sku:      payload.Sku,
		Name:     payload.Name,
		Price:    payload.Price,
		IsActive: payload.IsActive,
	})
	if err != nil {
		return storeFail(c, err)
	}
	return webserver.OK(c, p)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID")
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return storeFail(c, err)
	}
	return webserver.NoContent(c)
}

func parseID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// storeFail maps store errors onto the response taxonomy. Infrastructure
// failures keep their details in the log, not in the response body.
func storeFail(c echo.Context, err error) error {
	if ve, ok := catalog.AsValidation(err); ok {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", ve.Error())
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return webserver.Fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found")
	}
	zap.L().Error("catalog storage failure",
		zap.String("path", c.Request().URL.Path),
		zap.Error(err))
	return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Storage operation failed")
}
