// Package process runs a rendered [ffmpeg.Invocation] as a child process.
//
// A [Runner] owns exactly one child. It moves through three states:
//
//	unstarted -> running -> exited
//
// Run spawns the child, feeds optional input bytes to its stdin, waits, and
// returns captured output. A non-zero exit status is reported as a
// *[RuntimeError] carrying the command, the code and whatever was captured.
//
// Start spawns the child and returns a [Handle] immediately. The caller reads
// any captured streams from the handle and later calls [Runner.Wait], which
// is the only blocking point and reports the exit code without turning it
// into an error.
//
// The executable is resolved with exec.LookPath before anything else is
// opened; failure is reported as a *[NotFoundError]. A runner cannot be
// reused: a second Run or Start returns [ErrAlreadyStarted].
//
// Stream destinations are chosen per stream with a [Sink]:
//
//	Capture()     pipe and collect (default)
//	Inherit()     parent's stdout/stderr
//	Discard()     null device
//	WriteTo(w)    caller writer; *os.File is handed to the child directly
//
// Cancelling the context given to Run or Start interrupts the child with
// SIGINT and kills it if it has not exited after the grace period.
package process
