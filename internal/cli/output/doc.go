// Package output renders command results for the vftledger CLI.
//
// Results are plain structs or slices of structs. The table formatter
// reads the `table` struct tag for column names ("-" hides a field and
// ",wide" shows it only with --wide); JSON and YAML use their own tags.
// Values implementing fmt.Stringer, such as account IDs and wide
// amounts, are printed through String.
package output
