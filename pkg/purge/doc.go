// Package purge implements the cascading recipe/source-file deletion
// orchestrator (C7): PurgeSourceFile, PurgeRecipe, and
// SpawnDeleteFilesJob, three cooperating command messages (C6) that walk
// a source file's data lineage leaf-first, deleting recipes and jobs
// only once nothing downstream still references them.
package purge
