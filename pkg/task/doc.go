/*
Package task defines the unit submitted to a worker (C1) and the
factory that orders those units into an execution's task sequence (C2).

A Task never talks to storage or the cluster directly — it is a plain
bookkeeping object mutated through its lifecycle hooks (Running,
Complete, Fail) by the owning RunningExecution (see pkg/execution).
Keeping Task dumb is what lets RunningExecution hold a single lock
around every state transition without worrying about a Task doing I/O
under that lock.
*/
package task
