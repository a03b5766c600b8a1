// Package handle implements versioned handles and the generational slot
// tables that back every identity in the engine (nodes, edges, graph
// values, forwarding entries).
//
// A Handle is an (Index, Version) pair plus the owning SetID. Index slots
// into a dense table; Version is bumped every time the slot is freed, so a
// Handle captured before a destroy compares unequal to any Handle minted
// after it, even if the slot was reused. Comparisons never dereference the
// table: Table.Exists(h) is the only way to learn whether h still denotes
// a live object, and Validate(h) upgrades a Handle to a Validated handle
// once that check has been done, so hot paths that already know a handle
// is live can skip the check.
//
// AI-HINT (package):
//   - Index 0 is a valid slot; the zero Handle{} (Index 0, Version 0) is
//     never allocated (slot 0's version starts at 1), so Handle{} reliably
//     means "no handle" and Table.Exists(Handle{}) is always false.
//   - Table is not safe for concurrent use by itself; callers serialize
//     access.
package handle
