// Package allocator implements the per-context arena that backs kernel
// scratch allocations.  An arena only ever grows: blocks are bump-allocated
// out of fixed slabs and are reclaimed all at once when the owning context is
// removed, so every address handed to compiled code stays valid for the
// context's whole lifetime.
package allocator
