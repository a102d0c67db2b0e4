package server

import (
	"strings"
)

// System route paths registered by RegisterDefaultEndpoints.
var systemPaths = map[string]bool{
	"/health":    true,
	"/readiness": true,
	"/liveness":  true,
	"/info":      true,
	"/version":   true,
	"/metrics":   true,
}

// formatHandlerName turns Gin's handler name, e.g.
// "github.com/kbukum/todoapi/internal/todos.(*Handler).List-fm", into
// "Handler.List".
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")

	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}

	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")

	// Closures: "endpoint.Health.func1" -> "health"
	if strings.Contains(name, ".func") {
		parts := strings.Split(name, ".")
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				name = strings.ToLower(parts[i])
				break
			}
		}
	}

	// Drop a lowercase package prefix.
	if pkg, rest, ok := strings.Cut(name, "."); ok && strings.ToLower(pkg) == pkg {
		name = rest
	}
	return name
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
