package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Gragolf/internal/origin"
)

func TestServer_GetDecodesNameOnce(t *testing.T) {
	st, _ := newTestStore()
	products := []Product{
		{Name: "50%25 Off Socks", Price: decimal.RequireFromString("9.99"), Inventory: 3},
		{Name: "Tee 1/2 Zip", Price: decimal.RequireFromString("39.99"), Inventory: 2},
	}
	require.NoError(t, NewRepository(st).Save(context.Background(), products))

	h := (&Server{Log: zap.NewNop()}).Routes()

	tests := []struct {
		target string
		want   string
	}{
		{"/50%2525%20Off%20Socks", "50%25 Off Socks"},
		{"/Tee%201%2F2%20Zip", "Tee 1/2 Zip"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req = req.WithContext(origin.WithStore(req.Context(), "test", st))
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var e Entry
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
			assert.Equal(t, tt.want, e.Name)
		})
	}
}
