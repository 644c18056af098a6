// Package results implements the job results aggregator (C4): capturing
// a completed MAIN task's output files and JSON properties, storing the
// files through an injected DataFileStore, and threading a job's outputs
// into a downstream job's inputs.
package results
