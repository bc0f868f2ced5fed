// Package semantic binds C# syntax trees into symbols and types.
//
// A Compilation declares every type and member of its trees together with a
// small reference library of framework types (System, System.IO, collections,
// tasks, threading, HTTP) written as C# signatures and embedded in the binary.
// Reference types have no declarations, so analyses that follow calls stop at
// framework boundaries.
//
// # Binding
//
// ResolveSymbol binds names, member accesses, invocations, object creations,
// constructor initializers and element accesses. Overloads are chosen by arity,
// named arguments, ref kinds and argument types. TypeOf infers expression types,
// substituting generic arguments of the receiver and of the call, so that
// await Task.FromResult(x) has the type of x.
//
// Binding is best effort. Nodes that do not resolve return nil; nothing panics
// on malformed input. Results are cached per node and the Compilation is safe
// for concurrent readers.
//
// # Model
//
// Model is the narrow interface the value-flow engine consumes. Tests may
// substitute their own implementation.
package semantic
