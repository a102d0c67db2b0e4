// Package security builds the TLS configuration of the HTTP server.
//
//	cfg := security.TLSConfig{
//	    CertFile: "/etc/todoapi/tls/cert.pem",
//	    KeyFile:  "/etc/todoapi/tls/key.pem",
//	}
//	tlsConfig, err := cfg.Build() // nil when TLS is not configured
package security
