// Package engine implements the task ordering and recurrence engine.
//
// Every operation (Move, Generate, Create, Close, Open, UpdateRecurrence,
// Duplicate, DuplicateToProject, MoveToProject) follows the same shape:
//
//  1. Read what it needs and compute the result with pure code
//     (position.Calculate, duedate.Compute)
//  2. Write everything in one store transaction
//  3. After commit, dispatch the events it produced
//
// DISPATCH:
//
// Events are never published from inside a transaction. The first operation
// in a call chain opens a dispatch: a FIFO queue carried in the context,
// together with a correlation id and a step quota. The drain loop publishes
// each event to the Sink and then hands it to every registered Handler.
//
// A handler may call back into the engine, as the recurrence trigger does
// when it calls Generate. That call runs its own transaction, and because it
// finds the dispatch in its context it appends its events to the same queue
// instead of draining recursively. The outermost call returns once the queue
// is empty or the quota is spent.
//
// Sink and handler failures are logged and never fail the operation that
// produced the event.
//
// INVARIANTS:
//   - Active tasks of every (project, column, swimlane) hold positions 1..N
//   - A recurring task produces at most one successor
package engine
