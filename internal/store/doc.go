// Package store provides SQLite-backed storage for boards and tasks.
//
// The store holds:
//   - Projects with their ordered columns and swimlanes (the board layout)
//   - Tasks, placed at (project, column, swimlane, position)
//   - Subtasks, copied along when a task is duplicated or recurs
//   - Events: the append-only log of dispatched task events
//
// # Transactions
//
// Read methods and single-statement writes are available on both *Store and
// *Tx. Writes that span several statements (CreateTask, CommitOrdering,
// DuplicateSubtasks) exist only on *Tx and run inside Store.InTx, so a
// failure rolls the whole batch back.
//
// The pool holds a single connection. Inside InTx all work must go through
// the *Tx; calling *Store methods there blocks until the transaction ends.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
