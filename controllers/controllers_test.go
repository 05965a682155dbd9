package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/router"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/testutil"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

type apiResponse struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"error_code"`
	Details   json.RawMessage `json:"details"`
}

type harness struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	recorder *kds.Recorder
	admin    models.User
	staff    models.User
	kitchen  models.User
	table    models.Table
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.ConfigureJWT("controller-test-secret", time.Hour)

	db := testutil.SetupTestDB(t)
	recorder := kds.NewRecorder(50)

	tables := services.NewTableService(db, recorder, 0)
	stock := services.NewStockService(db, recorder, 0)
	deps := router.Deps{
		DB:       db,
		Recorder: recorder,
		Tables:   tables,
		Stock:    stock,
		Menu:     services.NewMenuService(db, recorder, 0),
		Orders: services.NewOrderService(db, tables, stock, recorder, services.OrderOptions{
			StockTrackedCategory: "Bebidas",
			StrictTransitions:    true,
		}),
		Catalog: services.NewCatalogService(db),
		Reports: services.NewReportService(db),
	}

	return &harness{
		t:        t,
		db:       db,
		router:   router.SetupRouter(deps),
		recorder: recorder,
		admin:    testutil.CreateUser(t, db, "admin", "admin123", models.RoleAdmin),
		staff:    testutil.CreateUser(t, db, "waiter", "waiter123", models.RoleStaff),
		kitchen:  testutil.CreateUser(t, db, "cook", "cook123", models.RoleKitchen),
		table:    testutil.CreateTable(t, db, 1),
	}
}

// tokenFor signs a token directly; login itself is covered separately.
func (h *harness) tokenFor(u models.User) string {
	h.t.Helper()
	token, err := utils.GenerateToken(u.ID, u.Username, u.Role)
	require.NoError(h.t, err)
	return token
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(h.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) apiResponse {
	t.Helper()
	resp := decode(t, w)
	require.NoError(t, json.Unmarshal(resp.Data, out), string(resp.Data))
	return resp
}
