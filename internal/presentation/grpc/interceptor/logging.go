package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

// LoggingInterceptor 呼び出しごとにログとメトリクスを記録するインターセプター
func LoggingInterceptor(logger *otelinfra.Logger, metrics *otelinfra.Metrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		metrics.RecordRequest(ctx, "GRPC", info.FullMethod)

		resp, err := handler(ctx, req)

		duration := time.Since(start)
		metrics.RecordResponseTime(ctx, "GRPC", info.FullMethod, duration.Seconds())

		code := status.Code(err)
		fields := map[string]interface{}{
			"method":      info.FullMethod,
			"code":        code.String(),
			"duration_ms": duration.Milliseconds(),
		}
		switch code {
		case codes.OK:
			logger.Info(ctx, "gRPC call completed", fields)
		case codes.Internal, codes.Unknown, codes.DeadlineExceeded, codes.Unavailable:
			metrics.RecordError(ctx, "server_error")
			logger.Error(ctx, "gRPC call failed", err, fields)
		default:
			metrics.RecordError(ctx, "client_error")
			logger.Warn(ctx, "gRPC call rejected", fields)
		}

		return resp, err
	}
}
