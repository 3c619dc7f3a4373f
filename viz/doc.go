// Package viz renders read-only views of a pipeline: the discovered
// dependency graph in Graphviz DOT or plain text form, and per-task
// introspection reports. It consumes only the pipeline's snapshot surface
// (task registry, dependency sets, parallel groups and cache keys) and
// cannot influence engine behavior.
package viz
