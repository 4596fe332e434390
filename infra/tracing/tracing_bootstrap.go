package tracing

import (
	"io"
	"pdis/common"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

type noopCloser struct{}

func (noopCloser) Close() error {
	return nil
}

// Bootstrap installs a jaeger tracer as the opentracing global tracer.
// Reporter and sampler are configured from JAEGER_* environment variables.
// The returned closer is never nil, so callers can always defer Close.
func Bootstrap() io.Closer {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		logrus.Warnf("jaeger config from env failed: %v", err)
		return noopCloser{}
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = common.GetServiceName()
	}

	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		logrus.Warnf("jaeger tracer create failed: %v", err)
		return noopCloser{}
	}
	opentracing.SetGlobalTracer(tracer)
	return closer
}
