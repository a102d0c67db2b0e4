// Package auth holds the contracts shared by the authentication packages.
//
//   - auth/password hashes and verifies passwords
//   - auth/jwt issues and verifies bearer tokens
//   - auth/authctx carries the verified identity through a request
//
// Config composes their settings for loading from config.yml:
//
//	auth:
//	  jwt:
//	    secret: ""        # AUTH_JWT_SECRET, 32+ bytes
//	    access_token_ttl: 24h
//	  password:
//	    bcrypt_cost: 12
package auth
