/*
Package ports defines the driven ports (interfaces) of the optical path manager.

These interfaces decouple the path logic from external implementations, allowing
the manager to persist its memory in various backends and to read mode
definitions from files.

# Key Interfaces

  - StateStore: persists the PathState of an instrument (last mode, values displaced by alignment, focus and fan memories).
  - DistributedLocker: serializes path changes of one instrument across processes.
  - ModeLoader: reads mode overrides (YAML, JSON or HCL mode files).
*/
package ports
