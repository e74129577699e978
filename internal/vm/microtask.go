// Microtask queue (spec §5 "Suspension", §6.1 vm_enqueue_job/
// vm_execute_pending_job): an in-VM FIFO of {function, args[]} records
// the host drains after a top-level script returns. Grounded on the
// teacher's own event-loop-free design — go-ethereum's core/vm never
// needs one, so this is modeled after the simplest possible FIFO a
// single-threaded cooperative scheduler needs, not a generic work queue.
package vm

import "github.com/nginx/njs-go/internal/value"

// microtask is one queued job: a callback plus its captured arguments,
// run with a fresh call frame when its turn comes (spec §5 "Microtasks
// run with a fresh frame on the same cooperative thread; there is no
// preemption").
type microtask struct {
	fn   value.Value
	args []value.Value
}

// EnqueueJob appends a job to the FIFO (spec §6.1 vm_enqueue_job). Used
// internally by the Promise plumbing (builtins_promise.go) to schedule
// reaction callbacks, and is exported for a host that wants to queue its
// own jobs (e.g. a module's top-level await continuation).
func (vm *VM) EnqueueJob(fn value.Value, args []value.Value) {
	vm.jobs = append(vm.jobs, microtask{fn: fn, args: append([]value.Value(nil), args...)})
}

// ExecutePendingJob runs the oldest queued job and reports whether the
// queue was non-empty (spec §6.1 vm_execute_pending_job). A job whose
// callback throws drops the error: an unhandled Promise rejection is
// reported exclusively through Options.RejectionTracker, not by
// propagating out of ExecutePendingJob (the embedding host decides
// whether that counts as fatal).
func (vm *VM) ExecutePendingJob() bool {
	if len(vm.jobs) == 0 {
		return false
	}
	job := vm.jobs[0]
	vm.jobs = vm.jobs[1:]
	vm.CallValue(job.fn, value.Undefined_(), job.args, nil)
	return true
}

// RunJobs drains the microtask queue to empty (spec §5 "The interpreter
// returns to its host when the queue is empty"), the common case for an
// embedding host that doesn't interleave its own event sources with
// njs-go's queue.
func (vm *VM) RunJobs() {
	for vm.ExecutePendingJob() {
	}
}
