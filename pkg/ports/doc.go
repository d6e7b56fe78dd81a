/*
Package ports defines the driven ports (interfaces) of the feedback previewer.

These interfaces decouple the render pipeline from external implementations, allowing
the same core to run against several template stores, markup formatters and display surfaces.

# Key Interfaces

  - Formatter: Turns rendered markdown into a domain.Node tree (e.g., goldmark).
  - Surface: Applies and clears the transient highlight on a displayed leaf.
  - TemplateStore: Persists the template source (File, Redis, SQLite, Memory).
  - Watchable: Notifies about backend changes for hot reload.
  - DistributedLocker: Coordinates writes across multiple instances.
*/
package ports
