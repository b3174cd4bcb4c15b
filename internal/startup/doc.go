// Package startup loads configuration from the environment (with optional
// .env file), validates the data directories, and owns the structured
// startup and shutdown log output.
package startup
