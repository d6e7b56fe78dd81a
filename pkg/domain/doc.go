/*
Package domain contains the core domain models for the brief rendering pipeline.

It defines the entities shared by the template engine, the markup renderer and the
diff engine. This package is kept pure and free of external dependencies like I/O
or persistence, following Hexagonal Architecture principles.

# Key Entities

  - PropertyDefinition: A named switch (boolean) or choice (enumeration) that feedback wording branches on.
  - Context: The snapshot of property values used for one render.
  - Node: A block or inline element of the rendered markup tree.
  - Fingerprint: A content-derived identity for a leaf node, used to detect novelty across renders.
*/
package domain
