package tracing

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// TracingIngress opens a server span per request, continuing a trace
// propagated through the request headers when one is present.
func TracingIngress() gin.HandlerFunc {
	return func(c *gin.Context) {
		tracer := opentracing.GlobalTracer()
		carrier := opentracing.HTTPHeadersCarrier(c.Request.Header)
		upstreamCtx, _ := tracer.Extract(opentracing.HTTPHeaders, carrier)

		op := c.Request.Method + " " + c.FullPath()
		if c.FullPath() == "" {
			op = c.Request.Method + " " + c.Request.URL.Path
		}
		span := tracer.StartSpan(op, ext.RPCServerOption(upstreamCtx))
		defer span.Finish()
		ext.HTTPUrl.Set(span, c.Request.URL.String())

		c.Request = c.Request.WithContext(opentracing.ContextWithSpan(c.Request.Context(), span))
		c.Next()

		ext.HTTPStatusCode.Set(span, uint16(c.Writer.Status()))
		ext.Error.Set(span, c.Writer.Status() >= 500)
	}
}
