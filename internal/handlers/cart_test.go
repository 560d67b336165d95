package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

type cartViewResponse struct {
	Items []struct {
		Product  models.Product  `json:"product"`
		Quantity uint            `json:"quantity"`
		Subtotal decimal.Decimal `json:"subtotal"`
	} `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (env *testEnv) viewCart(t *testing.T, buyer *models.User) cartViewResponse {
	t.Helper()

	rec, c := env.doJSONRequest(t, http.MethodGet, "/api/v1/cart", nil, buyer)
	require.NoError(t, env.Cart.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAddToCartAccumulates(t *testing.T) {
	env := newTestEnv(t)
	vendor := env.createUser(t, "vendor_user", models.RoleVendor)
	buyer := env.createUser(t, "buyer_user", models.RoleBuyer)
	store := env.createStore(t, vendor, "Acme")
	product := env.createProduct(t, store, "Widget", "2.50", 100)

	for _, qty := range []uint{2, 3} {
		payload := map[string]any{"product_id": product.ID, "quantity": qty}
		rec, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/cart", payload, buyer)
		require.NoError(t, env.Cart.AddToCart(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var item models.CartItem
	require.NoError(t, env.DB.Where("user_id = ? AND product_id = ?", buyer.ID, product.ID).First(&item).Error)
	require.Equal(t, uint(5), item.Quantity)

	view := env.viewCart(t, buyer)
	require.Len(t, view.Items, 1)
	require.Equal(t, uint(5), view.Items[0].Quantity)
	require.True(t, view.Items[0].Subtotal.Equal(decimal.RequireFromString("12.50")))
	require.True(t, view.Total.Equal(decimal.RequireFromString("12.50")))
}

func TestRemoveFromCart(t *testing.T) {
	env := newTestEnv(t)
	vendor := env.createUser(t, "vendor_user", models.RoleVendor)
	buyer := env.createUser(t, "buyer_user", models.RoleBuyer)
	store := env.createStore(t, vendor, "Acme")
	product := env.createProduct(t, store, "Widget", "2.50", 100)

	payload := map[string]any{"product_id": product.ID, "quantity": 2}
	_, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/cart", payload, buyer)
	require.NoError(t, env.Cart.AddToCart(c))

	id := strconv.Itoa(int(product.ID))
	rec, c := env.doJSONRequest(t, http.MethodDelete, "/api/v1/cart/"+id, nil, buyer)
	c.SetParamNames("product_id")
	c.SetParamValues(id)
	require.NoError(t, env.Cart.RemoveFromCart(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	view := env.viewCart(t, buyer)
	require.Empty(t, view.Items)
	require.True(t, view.Total.IsZero())
}

func TestGetCartDropsDeletedProducts(t *testing.T) {
	env := newTestEnv(t)
	vendor := env.createUser(t, "vendor_user", models.RoleVendor)
	buyer := env.createUser(t, "buyer_user", models.RoleBuyer)
	store := env.createStore(t, vendor, "Acme")
	kept := env.createProduct(t, store, "Widget", "2.50", 100)
	doomed := env.createProduct(t, store, "Gadget", "5.00", 100)

	for _, p := range []*models.Product{kept, doomed} {
		payload := map[string]any{"product_id": p.ID, "quantity": 1}
		_, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/cart", payload, buyer)
		require.NoError(t, env.Cart.AddToCart(c))
	}

	require.NoError(t, env.DB.Delete(&models.Product{}, doomed.ID).Error)

	view := env.viewCart(t, buyer)
	require.Len(t, view.Items, 1)
	require.Equal(t, kept.ID, view.Items[0].Product.ID)

	// the dangling line is gone from the cart as well
	var count int64
	env.DB.Model(&models.CartItem{}).Where("user_id = ? AND product_id = ?", buyer.ID, doomed.ID).Count(&count)
	require.Zero(t, count)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t, "buyer_user", models.RoleBuyer)

	payload := map[string]any{"product_id": 999, "quantity": 1}
	_, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/cart", payload, buyer)
	requireHTTPError(t, env.Cart.AddToCart(c), http.StatusNotFound)
}
