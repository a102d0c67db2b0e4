package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/todoapi/component"
	"github.com/kbukum/todoapi/logger"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component owns the tracer and meter providers.
type Component struct {
	cfg         Config
	service     string
	version     string
	environment string
	log         *logger.Logger

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// NewComponent creates the observability component for a service.
func NewComponent(cfg Config, service, version, environment string, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg:         cfg,
		service:     service,
		version:     version,
		environment: environment,
		log:         log.WithComponent("observability"),
	}
}

// Name returns the component name.
func (c *Component) Name() string { return "observability" }

// Start installs the exporters when enabled.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Debug("Observability disabled")
		return nil
	}

	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName:    c.service,
		ServiceVersion: c.version,
		Environment:    c.environment,
		Endpoint:       c.cfg.Endpoint,
		Insecure:       c.cfg.Insecure,
		SampleRate:     c.cfg.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("observability start: %w", err)
	}

	mp, err := InitMeter(ctx, MeterConfig{
		ServiceName:    c.service,
		ServiceVersion: c.version,
		Environment:    c.environment,
		Endpoint:       c.cfg.Endpoint,
		Insecure:       c.cfg.Insecure,
		Interval:       c.cfg.MetricInterval,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("observability start: %w", err)
	}

	c.tp, c.mp = tp, mp
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
		c.tp = nil
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
		c.mp = nil
	}
	return errors.Join(errs...)
}

// Health is always healthy: export failures never fail requests.
func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("otlp=%s sample=%.2f", c.cfg.Endpoint, c.cfg.SampleRate)
	}
	return component.Description{Name: "Observability", Type: "telemetry", Details: details}
}
