// Package task defines the board domain types shared by every other package.
//
// task imports nothing internal. Packages such as position, store, engine and
// trigger all build on these types, so the package stays a leaf.
//
// Key design constraints:
//   - Swimlane id 0 is the project's default swimlane
//   - A zero time.Time means "unset" for every date field
//   - Recurrence enums keep the numeric values of the persisted encoding
//   - All JSON tags use snake_case
package task
