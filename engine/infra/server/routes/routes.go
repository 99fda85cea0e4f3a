package routes

import "fmt"

// APIVersion is the version segment of every API route.
const APIVersion = "v0"

// Base returns the versioned API base path (e.g., "/api/v0").
func Base() string {
	return fmt.Sprintf("/api/%s", APIVersion)
}

// Ask returns the query endpoint (e.g., "/api/v0/ask").
func Ask() string {
	return Base() + "/ask"
}

// Sessions returns the sessions base path (e.g., "/api/v0/sessions").
func Sessions() string {
	return Base() + "/sessions"
}

// SessionDocument returns the document upload route for a session id param.
func SessionDocument() string {
	return Sessions() + "/:id/document"
}

// Plans returns the exported plans base path (e.g., "/api/v0/plans").
func Plans() string {
	return Base() + "/plans"
}

// Health is the unversioned liveness probe.
func Health() string {
	return "/healthz"
}
