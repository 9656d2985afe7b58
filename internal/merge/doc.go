// Package merge reconciles section trees.
//
// Three layers edit the same Group → Section → Query hierarchy: the built-in
// defaults, the admin-saved overrides, and the operator's working tree in an
// editor session. MergeForLoad combines defaults with saved overrides into a
// working tree; MergeForSave folds a working tree into the saved tree that was
// fetched right before writing, so edits made elsewhere in the meantime are
// kept.
//
// Identity: groups match by id, then by (name, author), then by the name the
// group shipped with (_originalName) and author. Sections match by id only.
// Queries match by position.
//
// Precedence: a field present on the overlay replaces the base value, except
// that section queries merge by index and query options merge key by key.
//
// Deletion: only an explicit tombstone (deleted: true) removes an item. An
// item missing from one layer is never treated as deleted. Tombstones are
// stripped from every result.
//
// All functions are pure: inputs are never modified and results share no
// memory with them.
package merge
