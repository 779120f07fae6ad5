// Package runner wires analysis, classification, synthesis and output into
// the gen, check and analyze commands.
//
// Every table is derived on its own: classification and synthesis of one
// table never look at another, so derivations run in parallel and are
// reassembled in source order before rendering.
package runner
