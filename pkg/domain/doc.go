/*
Package domain contains the core models of the optical path manager.

It describes the hardware the manager drives (as consumed interfaces), the
declarative mode tables and the persisted path state. The package is kept
free of I/O and of any adapter concerns.

# Key Entities

  - Component: An actuator or detector exposed by the hardware layer.
  - AxisDef: The shape of one axis (continuous range or enumerated choices).
  - Mode: A named target configuration (detector pattern + per-role axis values).
  - ValueSpec: How a desired axis value is obtained (literal, metadata, alternatives, sentinel).
  - Request: A high-level acquisition request used to infer a mode.
  - PathState: The persisted snapshot of the last mode and remembered axis values.
*/
package domain
