// Package preprocess runs conditional compilation over one unit.
//
// Preprocessor.Process makes a single pass over the unit's tokens grouping
// directives into a tree: conditional groups own their branches, each branch
// owns the tokens and directives lexically inside it. The tree is then
// executed in directive order. The first branch whose predicate holds is
// kept; every other branch, with everything nested in it, is deleted.
// Defines mutate a definition set shared with included files, includes are
// preprocessed recursively and spliced after their directive, switches are
// recorded in a SwitchRegistry.
//
// Tokens live in a per-file arena with a kept bitmap. Splices and switch
// events reference arena positions, so nothing is renumbered until the final
// stream is materialised once, at the top-level file.
package preprocess
