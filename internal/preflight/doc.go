// Package preflight validates build-environment toolchain versions
// before a larger Android build is allowed to proceed.
//
// The package checks:
//   - NDK major version against the supported window
//   - Target Android API level (minimum 30, armeabi cutoff at 21)
//   - NDK API level against the target Android API
//   - Host Python interpreter version (minimum 3.6)
//
// The package-level functions (CheckNDKVersion, CheckTargetAPI,
// CheckNDKAPI, CheckPythonVersion) are the contract used by build
// drivers: warnings go through slog and never affect control flow,
// while a build-blocking condition comes back as a fatal error whose
// remediation instructions are a separate field from the message.
//
// Use the Checker type to run every check and collect results:
//
//	checker := preflight.New(preflight.WithNDKDir("/opt/android-ndk"))
//	results := checker.RunAll(ctx)
//	if checker.HasCriticalFailures(results) {
//	    // Abort the build
//	}
package preflight
