// Package authsvc wraps the external auth provider. Sign-in flows (OAuth,
// magic link) run on the provider's own surface; this client only resolves
// the current session to a user identity and fans out auth-state changes to
// subscribers so views can switch between login and authenticated modes.
package authsvc
