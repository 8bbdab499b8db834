// Package memory configures the Go runtime memory limit from
// container environment variables.
package memory
