// Package config loads service configuration with viper.
//
// Values come from, in increasing precedence: the service's config.yml, a
// .env file, and the process environment. Nested keys map to upper-case
// underscore-joined variable names, so auth.jwt.secret is read from
// AUTH_JWT_SECRET.
//
//	var cfg app.Config
//	if err := config.LoadConfig("todoapi", &cfg); err != nil { ... }
package config
