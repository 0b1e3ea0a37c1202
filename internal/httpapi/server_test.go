package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/navan260/dsa-el/internal/logging"
	"github.com/navan260/dsa-el/internal/nbi/types"
	"github.com/navan260/dsa-el/internal/observability"
	"github.com/navan260/dsa-el/internal/parking/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var threeByFive = []string{
	"SSSSS",
	"ERRRR",
	"SSSSS",
}

func newTestRouter(t *testing.T, rows []string) (*gin.Engine, *state.ParkingState, *observability.Collector) {
	t.Helper()
	collector, err := observability.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	st := state.New(logging.Noop())
	if rows != nil {
		_, err := st.Reconfigure(context.Background(), rows, state.ReconfigureOptions{Name: "test"})
		require.NoError(t, err)
	}
	return NewRouter(st, Options{Metrics: collector}), st, collector
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["detail"]
}

func TestInitReturnsNodesAndEdges(t *testing.T) {
	r, _, _ := newTestRouter(t, threeByFive)

	w := do(t, r, http.MethodGet, "/init", "")
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "nodes")
	assert.Contains(t, raw, "edges")

	status := decode[types.Status](t, w)
	assert.Len(t, status.Nodes, 15)
	assert.Len(t, status.Edges, 22)
	assert.Equal(t, int64(5), status.Entrance)

	entrance := status.Nodes[5]
	assert.True(t, entrance.IsEntry)
	assert.Equal(t, "road", entrance.Type)
	assert.Equal(t, 0, entrance.X)
	assert.Equal(t, 1, entrance.Y)
	assert.Nil(t, entrance.VehicleID)
}

func TestParkLeaveFlow(t *testing.T) {
	r, _, collector := newTestRouter(t, threeByFive)

	w := do(t, r, http.MethodPost, "/park/car-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[types.ParkResult](t, w)
	assert.Equal(t, "Allocated slot 0", res.Message)
	assert.Equal(t, int64(0), res.SlotID)
	assert.Equal(t, []int64{5, 0}, res.Path)
	assert.Equal(t, "four-wheeler", res.Class)

	w = do(t, r, http.MethodPost, "/park/car-1", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Vehicle already parked", detail(t, w))

	w = do(t, r, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[types.Status](t, w)
	require.NotNil(t, status.Nodes[0].VehicleID)
	assert.Equal(t, "car-1", *status.Nodes[0].VehicleID)
	assert.True(t, status.Nodes[0].Filled)
	assert.Equal(t, 1, status.ActiveVehicles)

	w = do(t, r, http.MethodGet, "/vehicles/car-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), decode[types.Vehicle](t, w).SlotID)

	w = do(t, r, http.MethodPost, "/leave/car-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vehicle car-1 left slot 0", decode[types.LeaveResult](t, w).Message)

	w = do(t, r, http.MethodPost, "/leave/car-1", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Vehicle not found", detail(t, w))

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.Requests.WithLabelValues("http", "POST /park/:vehicle_id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.Requests.WithLabelValues("http", "POST /park/:vehicle_id", "400")))
}

func TestParkClassSelection(t *testing.T) {
	r, _, _ := newTestRouter(t, []string{"SB", "ER"})

	w := do(t, r, http.MethodPost, "/park/bike-1?class=bike", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), decode[types.ParkResult](t, w).SlotID)

	w = do(t, r, http.MethodPost, "/park/bike-2", `{"class":"two-wheeler"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Parking Lot Full", detail(t, w))

	w = do(t, r, http.MethodPost, "/park/bus-1", `{"class":"bus"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, detail(t, w), "unknown vehicle class")

	w = do(t, r, http.MethodPost, "/park/car-1", `{"class":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLayoutReplacement(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)

	w := do(t, r, http.MethodPost, "/park/car-1", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, r, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[types.Status](t, w).Configured)

	w = do(t, r, http.MethodPost, "/layout", `{"name":"lot","rows":["SX"]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/layout", `{"name":"lot","rows":["SSSSS","ERRRR","SSSSS"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[types.LayoutSummary](t, w)
	assert.Equal(t, int64(5), summary.Entrance)
	assert.Equal(t, "marker", summary.EntranceSource)
	assert.Equal(t, 10, summary.Slots["four-wheeler"])

	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/park/car-1", "").Code)

	w = do(t, r, http.MethodPost, "/layout", `{"rows":["ES"]}`)
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/layout", `{"rows":["ES"],"force":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[types.LayoutSummary](t, w).DiscardedVehicles)
}

func TestRouteQuery(t *testing.T) {
	r, _, _ := newTestRouter(t, threeByFive)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/park/car-1", "").Code)

	w := do(t, r, http.MethodGet, "/route/1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []int64{5, 6, 1}, decode[types.RouteResult](t, w).Path)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/route/6", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/route/abc", "").Code)
}

func TestRequestIDAndCORSHeaders(t *testing.T) {
	r, _, _ := newTestRouter(t, threeByFive)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, r, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestCORSRestrictedOrigins(t *testing.T) {
	st := state.New(nil)
	r := NewRouter(st, Options{AllowOrigins: []string{"http://parking.local"}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://parking.local")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://parking.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{state.ErrAlreadyParked, http.StatusBadRequest},
		{&state.LotFullError{}, http.StatusBadRequest},
		{state.ErrNotParked, http.StatusNotFound},
		{state.ErrInvalidVehicle, http.StatusBadRequest},
		{state.ErrConfiguration, http.StatusBadRequest},
		{state.ErrVehiclesParked, http.StatusConflict},
		{state.ErrNotConfigured, http.StatusServiceUnavailable},
		{state.ErrNoPathFound, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, _ := statusFor(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}
