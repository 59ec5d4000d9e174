package halo

import (
	"context"
	"encoding/json"
	"fmt"
)

// LogJSON emits one canonical structured record: application_name, time,
// level, detail come from the logger pipeline; method_name and the sanitized
// extra payload are attached here; trace_id and span_id are extracted from
// ctx. Serialization problems in extra degrade the payload to its string
// form rather than dropping the record.
func LogJSON(ctx context.Context, log Logger, methodName, detail, level string, extra map[string]any) {
	fields := make([]Field, 0, 3)
	fields = append(fields, String("method_name", methodName))

	if len(extra) > 0 {
		sanitized, degraded := sanitizeExtra(extra)
		fields = append(fields, Any("extra", sanitized))
		if degraded {
			fields = append(fields, Bool("serialization_degraded", true))
		}
	}

	switch level {
	case "debug":
		log.Debug(ctx, detail, fields...)
	case "warn", "warning":
		log.Warn(ctx, detail, fields...)
	case "error":
		log.Error(ctx, detail, nil, fields...)
	default:
		log.Info(ctx, detail, fields...)
	}
}

// sanitizeExtra returns a copy of extra where every value is guaranteed to
// JSON-encode. Values that fail a marshal probe are replaced with their
// fmt.Sprint form. The second return reports whether any value degraded.
func sanitizeExtra(extra map[string]any) (map[string]any, bool) {
	out := make(map[string]any, len(extra))
	degraded := false
	for k, v := range extra {
		if _, err := json.Marshal(v); err != nil {
			out[k] = fmt.Sprint(v)
			degraded = true
			continue
		}
		out[k] = v
	}
	return out, degraded
}
