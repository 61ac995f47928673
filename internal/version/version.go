package version

// Version is the service version, overridden at build time with -ldflags.
var Version = "0.1.0"

// GetCurrentVersion returns the version reported by the binary.
func GetCurrentVersion() string {
	return Version
}
