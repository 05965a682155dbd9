package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/testutil"
)

func TestTableCRUD(t *testing.T) {
	h := newHarness(t)
	admin := h.tokenFor(h.admin)

	w := h.do(http.MethodPost, "/api/tables", admin, map[string]interface{}{"number": 7, "capacity": 4, "type": "TABLE_4"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var table models.Table
	decodeData(t, w, &table)
	assert.Equal(t, models.TableAvailable, table.Status)

	w = h.do(http.MethodPost, "/api/tables", admin, map[string]interface{}{"number": 7, "capacity": 2, "type": "TABLE_2"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/tables/%d", table.ID), admin, map[string]interface{}{"capacity": 6})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &table)
	assert.Equal(t, 6, table.Capacity)

	w = h.do(http.MethodPatch, fmt.Sprintf("/api/tables/%d/status", table.ID), h.tokenFor(h.staff), map[string]string{"status": "RESERVED"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &table)
	assert.Equal(t, models.TableReserved, table.Status)

	w = h.do(http.MethodPatch, fmt.Sprintf("/api/tables/%d/status", table.ID), admin, map[string]string{"status": "DIRTY"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/tables/%d", table.ID), h.tokenFor(h.staff), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/tables/%d", table.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/tables/%d", table.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/api/tables/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAllTables_ShowsCurrentOrderStatus(t *testing.T) {
	h := newHarness(t)
	second := testutil.CreateTable(t, h.db, 2)
	soup := testutil.CreateMenuItem(t, h.db, "Sopa", "Comida", "90", nil, h.admin.ID)

	w := h.do(http.MethodPost, "/api/orders", h.tokenFor(h.staff), map[string]interface{}{
		"table_id": second.ID,
		"items":    []map[string]interface{}{{"menu_item_id": soup.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var order models.Order
	decodeData(t, w, &order)

	w = h.do(http.MethodGet, "/api/tables", h.tokenFor(h.kitchen), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []services.TableView
	decodeData(t, w, &views)
	require.Len(t, views, 2)

	assert.Equal(t, 1, views[0].Number)
	assert.Equal(t, services.DisplayAvailable, views[0].CurrentStatus)
	assert.Nil(t, views[0].CurrentOrderID)

	assert.Equal(t, 2, views[1].Number)
	assert.Equal(t, models.OrderPending, views[1].CurrentStatus)
	require.NotNil(t, views[1].CurrentOrderID)
	assert.Equal(t, order.ID, *views[1].CurrentOrderID)
	assert.Equal(t, models.TableOccupied, views[1].Status)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/tables/%d", second.ID), h.tokenFor(h.admin), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
