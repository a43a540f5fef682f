// Package services defines shared error classification and context
// helpers used by the external service clients and stage handlers.
package services
