// Package harness runs YAML board scenarios against the engine.
//
// A scenario declares a board, a list of operations, and assertions on the
// final board and on the dispatched event trace. Each run gets a fresh
// in-memory store, a fixed clock and sequential event ids, and has the
// recurrence triggers wired, so traces are reproducible and can be compared
// against golden files.
//
// # Scenario Format
//
//	name: abc_move
//	description: "Move a task into the next column"
//	now: "2024-01-15T09:30:00Z"
//	board:
//	  columns: [A, B, C]
//	  swimlanes: [S]
//	  tasks:
//	    - {ref: t1, title: one, column: A, swimlane: S}
//	  projects:
//	    - {name: archive, columns: [Inbox]}
//	steps:
//	  - move: {task: t1, column: B, position: 1}
//	  - move: {task: t1, column: C, position: 0}
//	    expect: {error: INVALID_PLACEMENT}
//	  - recur: t1
//	    as: t2
//	    expect: {generated: true}
//	  - advance: 24h
//	assertions:
//	  - {type: board, column: B, swimlane: S, tasks: [t1]}
//	  - {type: task, task: t2, expect: {due: "2024-01-16", position: 1}}
//	  - {type: event_count, event: task.create, count: 1}
//	  - {type: event_order, events: [task.move.column, task.create]}
//	  - {type: contiguous}
//
// Steps are create, move, close, open, recur, recurrence, duplicate and
// advance. Task references are the refs of board tasks (defaulting to the
// title), refs bound by a step's as, or "#<id>" for a literal id.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/abc_move.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
