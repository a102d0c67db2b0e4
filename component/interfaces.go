package component

import "context"

// HealthStatus is the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health is one component's health report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed piece of infrastructure.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a component's line in the startup summary.
type Description struct {
	// Name defaults to the component's Name().
	Name    string
	Type    string
	Details string
	Port    int
}

// Describable is implemented by components that report themselves in the
// startup summary.
type Describable interface {
	Describe() Description
}

// Route is one HTTP route for the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is implemented by components that serve HTTP routes.
type RouteProvider interface {
	Routes() []Route
}

// Overall folds component reports into a single status: unhealthy wins
// over degraded, which wins over healthy.
func Overall(reports []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range reports {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
