package interceptor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

func TestLoggingInterceptor(t *testing.T) {
	tests := []struct {
		name      string
		handler   grpc.UnaryHandler
		wantLevel string
		wantCode  string
	}{
		{
			name: "正常系: OK",
			handler: func(ctx context.Context, req interface{}) (interface{}, error) {
				return "ok", nil
			},
			wantLevel: "INFO",
			wantCode:  "OK",
		},
		{
			name: "異常系: NotFoundはWARN",
			handler: func(ctx context.Context, req interface{}) (interface{}, error) {
				return nil, status.Error(codes.NotFound, "wallet not found")
			},
			wantLevel: "WARN",
			wantCode:  "NotFound",
		},
		{
			name: "異常系: 素のエラーはERROR",
			handler: func(ctx context.Context, req interface{}) (interface{}, error) {
				return nil, errors.New("boom")
			},
			wantLevel: "ERROR",
			wantCode:  "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
			logger.SetOutput(&buf)
			metrics, err := otelinfra.NewMetrics("test")
			require.NoError(t, err)

			info := &grpc.UnaryServerInfo{FullMethod: "/booking_ledger.v1.LedgerService/GetBooking"}
			_, _ = LoggingInterceptor(logger, metrics)(context.Background(), "req", info, tt.handler)

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, 1)
			var entry otelinfra.LogEntry
			require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantCode, entry.Fields["code"])
			assert.Equal(t, info.FullMethod, entry.Fields["method"])
		})
	}
}
