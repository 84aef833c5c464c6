package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

func newRecordingMetrics(t *testing.T) (*otelinfra.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		_ = mp.Shutdown(context.Background())
	})

	metrics, err := otelinfra.NewMetrics("test-meter")
	require.NoError(t, err)
	return metrics, reader
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	want := attribute.NewSet(attrs...)
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if len(attrs) == 0 || dp.Attributes.Equals(&want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestMetricsMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		handler      echo.HandlerFunc
		wantErr      bool
		wantErrType  string
		wantErrCount int64
	}{
		{
			name: "正常系: 200はエラーに数えない",
			handler: func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			},
		},
		{
			name: "正常系: 3xxはエラーに数えない",
			handler: func(c echo.Context) error {
				return c.Redirect(http.StatusFound, "/elsewhere")
			},
		},
		{
			name: "異常系: JSONの401はclient_error",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid_signature"})
			},
			wantErrType:  "client_error",
			wantErrCount: 1,
		},
		{
			name: "異常系: JSONの500はserver_error",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_server_error"})
			},
			wantErrType:  "server_error",
			wantErrCount: 1,
		},
		{
			name: "異常系: HTTPErrorはそのコードで分類",
			handler: func(c echo.Context) error {
				return echo.NewHTTPError(http.StatusBadRequest, "bad")
			},
			wantErr:      true,
			wantErrType:  "client_error",
			wantErrCount: 1,
		},
		{
			name: "異常系: 素のエラーはserver_error",
			handler: func(c echo.Context) error {
				return errors.New("boom")
			},
			wantErr:      true,
			wantErrType:  "server_error",
			wantErrCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics, reader := newRecordingMetrics(t)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/webhooks/payment")

			err := MetricsMiddleware(metrics)(tt.handler)(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, int64(1), counterValue(t, reader, "requests_total",
				attribute.String("method", http.MethodPost),
				attribute.String("path", "/api/v1/webhooks/payment"),
			))
			if tt.wantErrType != "" {
				assert.Equal(t, tt.wantErrCount, counterValue(t, reader, "errors_total", attribute.String("error_type", tt.wantErrType)))
			} else {
				assert.Equal(t, int64(0), counterValue(t, reader, "errors_total"))
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, "", classifyStatus(http.StatusOK))
	assert.Equal(t, "", classifyStatus(http.StatusNotModified))
	assert.Equal(t, "client_error", classifyStatus(http.StatusNotFound))
	assert.Equal(t, "server_error", classifyStatus(http.StatusBadGateway))
}
