// Package gate is the embeddable API for droidgate's build-environment
// checks. Build tools that would otherwise shell out to the droidgate
// binary can run the same checks in-process.
//
// # Usage
//
// Run the full gate the way the CLI does:
//
//	runner, err := gate.NewRunner(gate.Config{
//	    NDKDir:    "/opt/android-ndk-r27",
//	    TargetAPI: 34,
//	    NDKAPI:    24,
//	    Arch:      "arm64-v8a",
//	})
//	if err != nil {
//	    return err
//	}
//
//	report := runner.Run(ctx)
//	if err := report.BuildBlocking(); err != nil {
//	    return err // stop the build, err carries remediation
//	}
//
// Or call the individual verdicts directly:
//
//	if err := gate.CheckTargetAPI(24, "armeabi"); err != nil {
//	    fmt.Println(gate.Instructions(err))
//	}
//
// # Verdicts
//
// Checks separate build-blocking problems from advisory ones. Blocking
// problems come back as errors; advisory ones are logged, or surface as
// WARN results in a [Report]. [IsBuildBlocking], [Code] and
// [Instructions] inspect a returned error without depending on its
// concrete type.
//
// # Thread Safety
//
// A Runner is safe for concurrent use; each Run evaluates
// independently.
package gate
