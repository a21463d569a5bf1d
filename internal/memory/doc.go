// Package memory keeps the process inside its container memory limit.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT (usually
// populated from the Kubernetes Downward API) scaled by MEMORY_RATIO,
// default 0.85. An explicit GOMEMLIMIT always wins.
//
//   - GOMEMLIMIT: standard Go variable, used as-is when set
//   - MEMORY_LIMIT: container limit in bytes
//   - MEMORY_RATIO: share of MEMORY_LIMIT for the Go heap, in (0, 1]
//
// A [Gate] samples heap usage and pauses admission of new transcode jobs
// while usage sits above the critical watermark, resuming once it falls
// below the resume watermark. Jobs already running are not interrupted.
//
//	gate := memory.NewGate(memory.DefaultGateConfig(), nil)
//	gate.Start()
//	defer gate.Stop()
//
//	if err := gate.Admit(ctx); err != nil {
//	    return err
//	}
package memory
