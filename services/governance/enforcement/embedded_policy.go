// Package enforcement bakes the default governance policy table into the
// binary with go:embed: the table is immutable at runtime and travels
// with the executable, never silently absent.
package enforcement

import _ "embed"

//go:embed policy_table.yaml
var PolicyTable []byte
