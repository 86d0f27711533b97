// Package enhance manages the asynchronous AI enhancement job lifecycle:
// submitting an image to a remote inference queue, polling its status, and
// mapping the terminal result back into a cacheable job record.
//
// # State machine
//
// A job moves strictly forward: queued → processing → completed | failed.
// Terminal states never regress, and the terminal answer is cached — polls
// of a finished job return it without touching the remote.
//
// # Transport-noise insulation
//
// The remote queue returns inconsistent transient HTTP errors under load.
// Treating any non-2xx status as failure would surface spurious
// user-visible failures, so the poll handler classifies responses: a fixed
// set of transient codes is reported as still-processing without mutating
// stored state, while auth/not-found class codes and explicit remote
// failures transition the job to failed. A fixed 120-second ceiling bounds
// the total wait regardless of what the remote reports.
//
// # Polling model
//
// Polling is cooperative and caller-driven: the package owns no timer, and
// there is no cancellation primitive. A caller that stops polling merely
// stops observing; the remote job keeps running and its terminal result
// stays fetchable later under the same job id.
package enhance
