// Package workflow provides the version information for the proposal workflow engine.
package workflow

// Version is the current release of the workflow engine.
const Version = "0.3.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
