// Package launcher starts and supervises the FMU Settings worker
// processes.
//
// The Supervisor owns the dual-service launch: it spawns the API and GUI
// servers as two isolated OS processes (re-executions of this binary with
// the api/gui subcommands), opens the user's browser at the authorized
// URL, then polls for the first worker to complete.
//
// A Worker is a thin wrapper around os/exec:
//   - starts the process in its own process group
//   - passes the session token through the environment
//   - mirrors stdout/stderr to the launcher's streams, keeping a stderr
//     tail for failure reporting
//   - delivers exactly one terminal Result on a shared channel
//
// Data flow:
//
//	Supervisor                 Worker{API}   Worker{GUI}   browser task
//	    |                         |              |              |
//	Run -> spawn ---------------->|              |              |
//	    |  spawn ------------------------------->|              |
//	    |  open authorized URL --------------------------------)| (returns at once)
//	    |  poll every 500ms       |              |              |
//	    |<------- Result ---------+--------------+  (first completion wins)
//	    |  classify + report
//	    |  Terminate both (always, also on interrupt)
//
// Invariants:
//   - One session token per launch, identical for both workers.
//   - The browser task is issued only after both worker launches.
//   - Exactly one completion event is handled; the supervisor never
//     waits for the second worker.
//   - Terminate is idempotent and tolerates processes that already
//     exited.
//
// Workers report bind failures with a dedicated exit code
// (model.ExitPortInUse) so the supervisor can distinguish a contended
// port from any other crash.
package launcher
