// Package httputil provides HTTP utilities for standardized response
// handling and middleware. Request parsing and body decoding are
// domain-error-aware in pkg/httpapi (idVar, decodeBody) rather than
// generic here, since every OLD endpoint reports failures as a typed
// domain.ValidationError, not a bare 400.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteSuccess(w, "Operation completed")
//	httputil.WriteCreated(w, resource)
//
// Error responses:
//
//	httputil.WriteError(w, http.StatusBadRequest, err)
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteUnauthorized(w, "Token expired")
//	httputil.WriteForbidden(w, "Insufficient permissions")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RecoveryMiddleware,
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware,
//		httputil.CORSMiddleware(allowedOrigins),
//		httputil.TimeoutMiddleware(30*time.Second),
//	)
package httputil
