package server

import (
	"context"
	"sort"

	"github.com/kbukum/todoapi/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*ServerComponent)(nil)
	_ component.Describable   = (*ServerComponent)(nil)
	_ component.RouteProvider = (*ServerComponent)(nil)
)

// ServerComponent adapts Server to the component lifecycle.
type ServerComponent struct {
	server *Server
}

// NewComponent returns a component backed by s.
func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

// Name returns the component name used for registration.
func (sc *ServerComponent) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (sc *ServerComponent) Start(ctx context.Context) error {
	return sc.server.Start(ctx)
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *ServerComponent) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health reports healthy once the listener is bound.
func (sc *ServerComponent) Health(context.Context) component.Health {
	sc.server.mu.RLock()
	bound := sc.server.boundAddr != ""
	sc.server.mu.RUnlock()

	if !bound {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusUnhealthy,
			Message: "HTTP server not listening",
		}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (sc *ServerComponent) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: sc.server.Addr(),
		Port:    sc.server.config.Port,
	}
}

// Routes lists the registered routes: API routes first by path, then the
// system endpoints.
func (sc *ServerComponent) Routes() []component.Route {
	ginRoutes := sc.server.engine.Routes()

	sort.Slice(ginRoutes, func(i, j int) bool {
		iSys := systemPaths[ginRoutes[i].Path]
		jSys := systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if ginRoutes[i].Path != ginRoutes[j].Path {
			return ginRoutes[i].Path < ginRoutes[j].Path
		}
		return methodOrder(ginRoutes[i].Method) < methodOrder(ginRoutes[j].Method)
	})

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		handler := formatHandlerName(r.Handler)
		if systemPaths[r.Path] {
			handler += " (system)"
		}
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: handler,
		})
	}
	return routes
}
