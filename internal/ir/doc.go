// Package ir provides the foundational value model shared by every other
// package.
//
// This package contains the tri-state containers (Value, ValueList), the
// Entity capability, validation results, canonical JSON and content hashes.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Missing and Present(zero) are distinct states and never collapse
//   - Entity fields are addressed by stable FieldKeys, never by reflection
//     over Go struct fields
//   - No floats: X12 decimals are apd.Decimal values, rendered as strings
package ir
