package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// healthServicePrefix prefixes every grpc.health.v1 method name. Health
// checks never need a token.
const healthServicePrefix = "/grpc.health.v1.Health/"

var (
	errMissingAuth  = errors.New("missing authorization header")
	errAuthScheme   = errors.New("invalid authorization scheme")
	errInvalidToken = errors.New("invalid token")
)

// checkBearer validates an Authorization header value against token.
func checkBearer(header, token string) error {
	if header == "" {
		return errMissingAuth
	}
	provided, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return errAuthScheme
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
		return errInvalidToken
	}
	return nil
}

// authorizeRPC checks the bearer token carried in ctx's incoming metadata.
func authorizeRPC(ctx context.Context, method, token string) error {
	if token == "" || strings.HasPrefix(method, healthServicePrefix) {
		return nil
	}
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("authorization"); len(vals) > 0 {
			header = vals[0]
		}
	}
	if err := checkBearer(header, token); err != nil {
		return status.Error(codes.Unauthenticated, err.Error())
	}
	return nil
}

// UnaryAuth rejects unary calls without a valid bearer token. An empty
// token disables auth.
func UnaryAuth(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := authorizeRPC(ctx, info.FullMethod, token); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamAuth is UnaryAuth for streaming calls such as reflection and
// health Watch.
func StreamAuth(token string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := authorizeRPC(ss.Context(), info.FullMethod, token); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

// recoverRPC turns a handler panic into codes.Internal. It must be
// deferred directly.
func (s *Server) recoverRPC(method string, err *error) {
	if r := recover(); r != nil {
		s.logger.Error("panic recovered in gRPC handler",
			"method", method,
			"panic", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)
		*err = status.Errorf(codes.Internal, "internal server error")
	}
}

func (s *Server) unaryRecovery(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer s.recoverRPC(info.FullMethod, &err)
	return handler(ctx, req)
}

func (s *Server) streamRecovery(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
	defer s.recoverRPC(info.FullMethod, &err)
	return handler(srv, ss)
}

// logRPC logs a finished call. Health probes log at debug level.
func (s *Server) logRPC(method string, start time.Time, err error) {
	attrs := []any{"method", method, "duration", time.Since(start)}
	switch {
	case err != nil:
		s.logger.Error("rpc completed", append(attrs, "code", status.Code(err), "error", err)...)
	case strings.HasPrefix(method, healthServicePrefix):
		s.logger.Debug("rpc completed", attrs...)
	default:
		s.logger.Info("rpc completed", attrs...)
	}
}

func (s *Server) unaryLogging(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logRPC(info.FullMethod, start, err)
	return resp, err
}

func (s *Server) streamLogging(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	s.logRPC(info.FullMethod, start, err)
	return err
}

// authExemptPaths are served without a token.
var authExemptPaths = map[string]bool{
	"/v1/health": true,
	"/metrics":   true,
}

// AuthMiddleware wraps next with bearer-token auth. An empty token
// disables auth. GET requests for the health check and the metrics scrape
// are always let through.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && authExemptPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		if err := checkBearer(r.Header.Get("Authorization"), token); err != nil {
			slog.Debug("rejected unauthenticated request", "method", r.Method, "path", r.URL.Path, "error", err)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
