// Package metrics holds the prometheus collectors of the auth service. All
// collectors register with the default registry and are served on /metrics.
package metrics

const namespace = "dashboard_auth"
