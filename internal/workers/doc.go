/*
Package workers sizes and runs the background transcode pool.

When running in containers the number of usable CPUs may be limited by cgroup
constraints. runtime.NumCPU() still reports the host count, so the helpers
here use GOMAXPROCS, which Go 1.19+ sets from the container limit:

	// Wrong: Returns 64 (host CPUs), ignores container limit
	workers := runtime.NumCPU()

	// Correct: Returns 2 (respects container limit in Go 1.19+)
	workers := runtime.GOMAXPROCS(0)

# Basic Usage

	// Transcoding is CPU bound: one job per CPU, at most 4
	pool := workers.NewPool(workers.ForCPU(4))

	done := pool.Go(func() {
	    runTranscode(ctx, id)
	})
	<-done // optional: await this job

	// On shutdown
	if err := pool.Wait(shutdownCtx); err != nil {
	    // deadline hit with jobs still running
	}

# Environment Variable Override

TRANSCODE_WORKERS pins the worker count regardless of CPU count. The limit
passed to ForCPU or ForIO still applies.

	env:
	- name: TRANSCODE_WORKERS
	  value: "2"
*/
package workers
