package script

import "github.com/clawinfra/popgenlab/internal/value"

// NodeKind discriminates the AST node shapes produced by the parser.
// Every node carries the token it was built from (for position
// reporting and, for literals/identifiers, the raw text) plus an ordered
// list of children.
type NodeKind uint8

const (
	NProgram NodeKind = iota
	NCompound
	NExprStmt
	NIf
	NDoWhile
	NWhile
	NForIn
	NNext
	NBreak
	NReturn

	NAssign
	NBinary
	NLogical
	NCompare
	NRange
	NUnary
	NCall
	NSubscript
	NMember
	NIdent
	NIntLit
	NFloatLit
	NStringLit
	NConstant
)

// Node is a single AST node: a token, an ordered list of children, and
// two caches — a literal/constant Value filled by the optimizer at parse
// time, and a builtin resolution filled on the node's first evaluation.
// Both are written once and read thereafter; the single-threaded
// interpreter never races them.
type Node struct {
	Kind     NodeKind
	Tok      Token
	Children []*Node

	// Cache populated by Optimize; nil until then for cacheable nodes.
	CachedValue *value.Value

	// resolvedBuiltin caches the builtin a call node's callee identifier
	// resolved to, filled on the first evaluation of the node and read
	// thereafter. The interpreter is single-threaded, so the fill never
	// races a read.
	resolvedBuiltin *Builtin

	// FastPathConst marks a compound or return node whose single child
	// collapsed to a literal during optimization — its CachedValue can be
	// returned directly by the interpreter without walking the subtree.
	FastPathConst bool
}

func newNode(kind NodeKind, tok Token, children ...*Node) *Node {
	return &Node{Kind: kind, Tok: tok, Children: children}
}
