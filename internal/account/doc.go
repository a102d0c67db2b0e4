// Package account registers users and logs them in.
//
// Service orchestrates the password pool, the token issuer and a
// UserDirectory. Both operations are stateless: all state lives behind the
// directory, and the only session record is the signed token returned to
// the client. Login failures are deliberately uniform; an unknown email
// and a wrong password produce the same InvalidCredentials error.
package account
