// Package fields provides HTTP and dependency logging field helpers.
//
// These helpers create structured fields with consistent naming for
// request, response and outbound-dependency data.
//
// Usage:
//
//	import "github.com/halolabs/halo/fields"
//
//	logger.Info(ctx, "request completed",
//	    fields.Method("GET"),
//	    fields.Status(200),
//	    fields.DurationMs(12.5),
//	)
package fields

import "github.com/halolabs/halo"

// --- Request Fields ---

// Method creates an http_method field.
func Method(method string) halo.Field {
	return halo.String("http_method", method)
}

// Path creates an http_path field.
func Path(path string) halo.Field {
	return halo.String("http_path", path)
}

// Host creates an http_host field.
func Host(host string) halo.Field {
	return halo.String("http_host", host)
}

// RemoteAddr creates a remote_addr field.
func RemoteAddr(addr string) halo.Field {
	return halo.String("remote_addr", addr)
}

// UserAgent creates a user_agent field.
func UserAgent(ua string) halo.Field {
	return halo.String("user_agent", ua)
}

// --- Response Fields ---

// Status creates an http_status field.
func Status(code int) halo.Field {
	return halo.Int("http_status", code)
}

// DurationMs creates a duration_ms field.
func DurationMs(ms float64) halo.Field {
	return halo.Float64("duration_ms", ms)
}

// SizeBytes creates a response_size_bytes field.
func SizeBytes(n int64) halo.Field {
	return halo.Int64("response_size_bytes", n)
}

// ContentType creates a content_type field.
func ContentType(ct string) halo.Field {
	return halo.String("content_type", ct)
}

// Truncated creates a body_preview_truncated field.
func Truncated(truncated bool) halo.Field {
	return halo.Bool("body_preview_truncated", truncated)
}

// --- Dependency Fields ---

// Component creates a component field.
func Component(name string) halo.Field {
	return halo.String("component", name)
}

// Operation creates an operation field.
func Operation(name string) halo.Field {
	return halo.String("operation", name)
}

// DependencyName creates a dependency_name field.
func DependencyName(name string) halo.Field {
	return halo.String("dependency_name", name)
}

// Target creates a dependency_target field.
func Target(target string) halo.Field {
	return halo.String("dependency_target", target)
}

// --- Outcome Fields ---

// Success creates a success field.
func Success(ok bool) halo.Field {
	return halo.Bool("success", ok)
}

// Reason creates a reason field.
func Reason(reason string) halo.Field {
	return halo.String("reason", reason)
}
