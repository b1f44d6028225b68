package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsignal/loraplan/internal/config"
	"github.com/gridsignal/loraplan/internal/model"
	"github.com/gridsignal/loraplan/internal/override"
	"github.com/gridsignal/loraplan/internal/store"
)

func newTestAPI(t *testing.T) (http.Handler, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	c := &config.Config{
		Plan: config.PlanConfig{
			GatewayThresholdKm: 5,
			NodeThresholdKm:    5,
			MaxChildren:        4,
			FreqPoolMin:        16,
			FreqPoolMax:        30,
			GatewayDownlink:    3,
			OnExhaustion:       "fail",
		},
		Server: config.ServerConfig{RatePerSec: 1000, RateBurst: 1000},
	}

	return newRouter(st, c), st
}

func doJSON(t *testing.T, h http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAPI_Health(t *testing.T) {
	h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_GatewayLifecycle(t *testing.T) {
	h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodGet, "/api/gateway", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/api/gateway", model.Coordinate{Lat: 40.7128, Lon: -74.0060})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/gateway", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var gw model.Gateway
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &gw))
	assert.Equal(t, 40.7128, gw.Coordinate.Lat)
}

func TestAPI_AddNode_ComputesDirectFlag(t *testing.T) {
	h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodPut, "/api/gateway", model.Coordinate{Lat: 40.7128, Lon: -74.0060})
	require.Equal(t, http.StatusOK, rr.Code)

	// ~4.45 km north of the gateway: in range, classified direct.
	rr = doJSON(t, h, http.MethodPost, "/api/nodes", addNodeRequest{Name: "N1", Lat: 40.7528, Lon: -74.0060})
	require.Equal(t, http.StatusCreated, rr.Code)

	var n1 model.Node
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &n1))
	assert.True(t, n1.DirectToGateway)

	// Far from everything: indirect.
	rr = doJSON(t, h, http.MethodPost, "/api/nodes", addNodeRequest{Name: "N2", Lat: 44.0, Lon: -74.0060})
	require.Equal(t, http.StatusCreated, rr.Code)

	var n2 model.Node
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &n2))
	assert.False(t, n2.DirectToGateway)
}

func TestAPI_AddNode_Validation(t *testing.T) {
	h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodPost, "/api/nodes", addNodeRequest{Lat: 40.0, Lon: -74.0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/nodes", addNodeRequest{Name: model.GatewayID, Lat: 40.0, Lon: -74.0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_DeleteNode(t *testing.T) {
	h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodPost, "/api/nodes", addNodeRequest{Name: "N1", Lat: 40.0, Lon: -74.0})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/nodes/N1", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/nodes/N1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_Overrides(t *testing.T) {
	h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodPut, "/api/gateway", model.Coordinate{Lat: 40.7128, Lon: -74.0060})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, h, http.MethodPost, "/api/nodes", addNodeRequest{Name: "N1", Lat: 40.7528, Lon: -74.0060})
	require.Equal(t, http.StatusCreated, rr.Code)

	// Unknown endpoint rejected.
	rr = doJSON(t, h, http.MethodPost, "/api/overrides", overrideRequest{A: "N1", B: "ghost"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/overrides", overrideRequest{A: "N1", B: model.GatewayID})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/overrides", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var pairs []override.Pair
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pairs))
	require.Len(t, pairs, 1)

	rr = doJSON(t, h, http.MethodDelete, "/api/overrides", overrideRequest{A: model.GatewayID, B: "N1"})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/overrides", overrideRequest{A: "N1", B: model.GatewayID})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_PlanAndExport(t *testing.T) {
	h, _ := newTestAPI(t)

	// No gateway yet.
	rr := doJSON(t, h, http.MethodPost, "/api/plan", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/api/gateway", model.Coordinate{Lat: 40.7128, Lon: -74.0060})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, h, http.MethodPost, "/api/nodes", addNodeRequest{Name: "N1", Lat: 40.7528, Lon: -74.0060})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/plan", nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	var result model.PlanResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, model.GatewayID, result.Tree.Parent["N1"])
	assert.Equal(t, 1, result.ReachableCount)

	rr = doJSON(t, h, http.MethodGet, "/api/plans", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var plans []model.PlanResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &plans))
	require.Len(t, plans, 1)

	rr = doJSON(t, h, http.MethodGet, "/api/plans/"+result.ID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/plans/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/export/geojson", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "geo+json")
	assert.Contains(t, rr.Body.String(), "FeatureCollection")
}

func TestAPI_ExportGeoJSON_NoPlans(t *testing.T) {
	h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodGet, "/api/export/geojson", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
