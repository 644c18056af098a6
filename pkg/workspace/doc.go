/*
Package workspace provides a local-disk implementation of the job
results collaborators: results.DataFileStore and results.WorkspaceResolver.

LocalStore creates one subdirectory per workspace under a base path
(mirroring the teacher's MkdirAll-based directory-per-entity pattern)
and copies each captured output file into it under a generated file ID,
so the local scratch path a task wrote to never needs to match the
permanent file ID a downstream job references.

Workspace names are configured up front as a paramName -> workspace
mapping; an output parameter with no configured workspace falls back
to a workspace named after the parameter itself.
*/
package workspace
