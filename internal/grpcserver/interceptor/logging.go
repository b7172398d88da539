// Package interceptor holds the unary interceptors of the gRPC health service.
package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/usrinfo/internal/logger"
)

// UnaryLoggingInterceptor logs the listed unary RPCs: caller, duration and
// result code, plus the checked service and its reported status for health checks.
func UnaryLoggingInterceptor(loggedMethods []string) grpc.UnaryServerInterceptor {
	logged := make(map[string]struct{}, len(loggedMethods))
	for _, m := range loggedMethods {
		logged[m] = struct{}{}
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if _, ok := logged[info.FullMethod]; !ok {
			return handler(ctx, req)
		}

		start := time.Now()
		resp, err := handler(ctx, req)
		st, _ := status.FromError(err)

		fields := []interface{}{
			"method", info.FullMethod,
			"peer", peerAddr(ctx),
			"duration", time.Since(start),
			"code", st.Code().String(),
		}
		if err != nil {
			fields = append(fields, "message", st.Message())
		}
		if checkReq, ok := req.(*healthpb.HealthCheckRequest); ok {
			fields = append(fields, "service", checkReq.GetService())
		}
		if checkResp, ok := resp.(*healthpb.HealthCheckResponse); ok {
			fields = append(fields, "serving_status", checkResp.GetStatus().String())
		}

		logger.Log.Infow("gRPC request", fields...)

		return resp, err
	}
}

func peerAddr(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	return p.Addr.String()
}
