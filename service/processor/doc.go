// Package processor implements the sync engine: the algorithm that drains a
// context's task groups in launch order, executes their chunks, and, when
// the context is still unresolved because nested launches are pending deeper
// in the call tree, borrows chunks from any other live context so that
// global forward progress is guaranteed and no set of blocked sync calls can
// deadlock.
package processor
