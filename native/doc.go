// Package native provides ownership primitives for native heap structures
// that may be owned by the wrapper or by external native code.
//
// The pieces, leaves first:
//
//   - Handle is an immutable address of a T. It has no lifetime.
//   - Slot is the address of a cell (one machine word) that stores a Handle.
//     Native code may rewrite or null the cell at any time, so content must
//     be re-read after every call that could have changed it.
//   - Ownership is the single lifetime authority for one Slot. An owning
//     Ownership allocated the cell and frees it on Release; a shared one
//     only detaches. Release force-releases every linked Dependent first.
//   - Holder is the base for managed objects that need a checked view onto
//     an Ownership's slot.
//   - IdentityCache interns one managed object per native address.
//
// None of these types are safe for concurrent use on the same ownership
// graph. IdentityCache is the exception because its entries are also
// pruned from the runtime's cleanup goroutine.
package native
