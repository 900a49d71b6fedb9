package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"
)

// LogError adds a span log for an error.
// Returns unchanged error, so useful to wrap as in:
//
// return 0, tracing.LogError(span, err)
func LogError(span opentracing.Span, err error) error {
	if err == nil {
		return nil
	}
	span.LogFields(log.Error(err))
	return err
}

// InjectToHTTPRequest adds tracing headers to an HTTP request.
// Easier than adding this boilerplate everywhere.
func InjectToHTTPRequest(span opentracing.Span, req *http.Request) {
	err := opentracing.GlobalTracer().Inject(span.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header))
	if err != nil {
		span.LogFields(log.String("trace-inject-error", err.Error()))
	}
}

// ExtractFromHTTPRequest starts a server span named handlerName:path. The
// span is a child of the caller's span when the request headers carry one.
// The returned request carries the span in its context.
func ExtractFromHTTPRequest(req *http.Request, handlerName string) (opentracing.Span, *http.Request) {
	opName := handlerName + ":" + req.URL.Path

	var span opentracing.Span
	spanContext, err := opentracing.GlobalTracer().Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header))
	if err != nil {
		span = opentracing.StartSpan(opName, opentracing.ChildOf(spanFromContext(req.Context())))
		if err != opentracing.ErrSpanContextNotFound {
			span.LogFields(log.String("trace-extract-error", err.Error()))
		}
	} else {
		span = opentracing.StartSpan(opName, ext.RPCServerOption(spanContext))
	}

	ext.HTTPMethod.Set(span, req.Method)
	ext.HTTPUrl.Set(span, req.URL.Path)

	return span, req.WithContext(opentracing.ContextWithSpan(req.Context(), span))
}

func spanFromContext(ctx context.Context) opentracing.SpanContext {
	if parent := opentracing.SpanFromContext(ctx); parent != nil {
		return parent.Context()
	}
	return nil
}

// StartSpanFromContext is an easier-to-use opentracing.StartSpanFromContext.
// Uses the calling function as the operation name, and logs the file:line.
func StartSpanFromContext(ctx context.Context) (opentracing.Span, context.Context) {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		span, ctx := opentracing.StartSpanFromContext(ctx, "unknown")
		span.LogFields(log.Error(errors.New("failed to get calling frame")))
		return span, ctx
	}

	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()

	span, ctx := opentracing.StartSpanFromContext(ctx, frame.Function)
	span.LogFields(log.String("location", fmt.Sprintf("%s:%d", frame.File, frame.Line)))

	return span, ctx
}
