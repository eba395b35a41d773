package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invdomain "github.com/dmehra2102/bookstore-order-engine/internal/inventory/domain"
	"github.com/dmehra2102/bookstore-order-engine/internal/inventory/ledger"
	"github.com/dmehra2102/bookstore-order-engine/internal/order/application"
	"github.com/dmehra2102/bookstore-order-engine/internal/order/domain"
	"github.com/dmehra2102/bookstore-order-engine/internal/order/infrastructure/memory"
)

func newTestServer(seed ...invdomain.BookStock) *httptest.Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor := application.NewProcessor(log, ledger.New(log, seed), memory.NewStore())
	return httptest.NewServer(NewHandler(log, processor).Routes())
}

func postOrder(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreateOrderSuccess(t *testing.T) {
	srv := newTestServer(invdomain.BookStock{ID: "11111-22222", Title: "The Ancient Woods", Quantity: 10})
	defer srv.Close()

	resp := postOrder(t, srv, `[{"bookId":"11111-22222","quantity":2}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out["orderId"])

	stockResp, err := http.Get(srv.URL + "/books_stock/11111-22222")
	require.NoError(t, err)
	defer stockResp.Body.Close()
	require.Equal(t, http.StatusOK, stockResp.StatusCode)

	var s invdomain.BookStock
	require.NoError(t, json.NewDecoder(stockResp.Body).Decode(&s))
	assert.Equal(t, 8, s.Quantity)
}

func TestCreateOrderUnknownBook(t *testing.T) {
	srv := newTestServer(invdomain.BookStock{ID: "33333-44444", Quantity: 1})
	defer srv.Close()

	resp := postOrder(t, srv, `[{"bookId":"00000-11111","quantity":2}]`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "not existing book: 00000-11111", out["error"])
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	srv := newTestServer(invdomain.BookStock{ID: "55555-66666", Quantity: 1})
	defer srv.Close()

	resp := postOrder(t, srv, `[{"bookId":"55555-66666","quantity":3}]`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "not enough stock for book: 55555-66666", out["error"])

	stockResp, err := http.Get(srv.URL + "/books_stock/55555-66666")
	require.NoError(t, err)
	defer stockResp.Body.Close()
	var s invdomain.BookStock
	require.NoError(t, json.NewDecoder(stockResp.Body).Decode(&s))
	assert.Equal(t, 1, s.Quantity)
}

func TestCreateOrderNegativeQuantity(t *testing.T) {
	srv := newTestServer(invdomain.BookStock{ID: "66666-77777", Quantity: 10})
	defer srv.Close()

	resp := postOrder(t, srv, `[{"bookId":"66666-77777","quantity":-1}]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrderEmptyBookID(t *testing.T) {
	srv := newTestServer(invdomain.BookStock{ID: "77777-88888", Quantity: 10})
	defer srv.Close()

	resp := postOrder(t, srv, `[{"bookId":"","quantity":2}]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrderInvalidBody(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postOrder(t, srv, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListOrdersShowsCommittedOrderWithItemsInSubmissionOrder(t *testing.T) {
	srv := newTestServer(
		invdomain.BookStock{ID: "88888-99999", Quantity: 5},
		invdomain.BookStock{ID: "99999-00000", Quantity: 6},
	)
	defer srv.Close()

	resp := postOrder(t, srv, `[{"bookId":"88888-99999","quantity":2},{"bookId":"99999-00000","quantity":3}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/orders")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var orders []domain.Order
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&orders))
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 2)
	assert.Equal(t, "88888-99999", orders[0].Items[0].BookID)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
	assert.Equal(t, "99999-00000", orders[0].Items[1].BookID)
	assert.Equal(t, 3, orders[0].Items[1].Quantity)
}

func TestGetOrderNotFound(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/orders/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetStockUnknownBook(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/books_stock/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
