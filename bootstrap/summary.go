package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/todoapi/component"
)

// Summary is the startup report: infrastructure, routes and live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []component.Description
	routes          []component.Route
	health          []component.Health
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Collect gathers descriptions, routes and health from the registry's
// components.
func (s *Summary) Collect(ctx context.Context, registry *component.Registry) {
	s.infrastructure, s.routes = nil, nil
	for _, c := range registry.All() {
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name == "" {
				desc.Name = c.Name()
			}
			s.infrastructure = append(s.infrastructure, desc)
		}
		if rp, ok := c.(component.RouteProvider); ok {
			s.routes = append(s.routes, rp.Routes()...)
		}
	}
	s.health = registry.HealthAll(ctx)
}

// Write prints the summary to w.
func (s *Summary) Write(w io.Writer) {
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.infrastructure) > 0 {
		fmt.Fprintf(w, "\nInfrastructure\n")
		for i, inf := range s.infrastructure {
			details := inf.Details
			if inf.Port > 0 && !strings.HasSuffix(details, fmt.Sprintf(":%d", inf.Port)) {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			fmt.Fprintf(w, "   %s %s [%s]: %s\n", treePrefix(i, len(s.infrastructure)), inf.Name, inf.Type, details)
		}
	}

	if len(s.routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Fprintf(w, "   %s %-7s %s -> %s\n", treePrefix(i, len(s.routes)), r.Method, r.Path, r.Handler)
		}
	}

	if len(s.health) > 0 {
		fmt.Fprintf(w, "\nHealth (%s)\n", component.Overall(s.health))
		for i, h := range s.health {
			msg := ""
			if h.Message != "" {
				msg = " - " + h.Message
			}
			fmt.Fprintf(w, "   %s %s: %s%s\n", treePrefix(i, len(s.health)), h.Name, h.Status, msg)
		}
	}
	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
