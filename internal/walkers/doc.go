// Package walkers answers value-flow questions about C# code.
//
// An Engine wraps a semantic.Model and runs three kinds of queries:
//
//   - AssignedValues: which expressions may have been stored in a field,
//     property, local or parameter when execution reaches a point
//   - ReturnValues: which expressions a member or expression can produce
//   - scanners: invocations, assignments, using statements and other nodes
//     executed by a subtree, and whether a member is disposed
//
// Every query walks code in approximate execution order. Calls, constructor
// chains and accessors are followed into their declarations according to a
// SearchScope, each call site at most once per query, so cycles terminate.
// Unresolvable code contributes nothing; the result is a best-effort,
// duplicate-free list in discovery order.
//
// Walkers are borrowed from an Arena for the duration of one query. The only
// error a query returns is the cancellation of its context.
package walkers
