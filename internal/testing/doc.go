// Package testing contains fixtures shared by integration tests: scratch
// project trees with configuration files and fake external tools, file
// system assertions and command line results.
package testing

const (
	// testDirPermissions is the permission mode for creating test directories.
	testDirPermissions = 0o750

	// testFilePermissions is the permission mode for creating test files.
	testFilePermissions = 0o600

	// testToolPermissions is the permission mode for fake tool scripts.
	testToolPermissions = 0o755
)
