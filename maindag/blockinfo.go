package maindag

import "github.com/ubixnet/ubixd/util/daghash"

// BlockInfo describes the metadata the main DAG index needs about a single
// block. The index never loads full blocks.
type BlockInfo interface {
	// Hash returns the block's hash.
	Hash() *daghash.Hash

	// Height returns the block's height: the length of the longest parent
	// chain from genesis to the block. The genesis block has height zero.
	Height() uint64

	// ParentHashes returns the hashes of the block's direct parents.
	ParentHashes() []*daghash.Hash

	// IsBad returns whether the block failed validation.
	IsBad() bool

	// IsFinal returns whether the block has been finalized.
	IsFinal() bool

	// ConciliumID returns the id of the concilium that witnessed the
	// block.
	ConciliumID() uint32
}

// BlockInfoStore provides access to the node's persisted block metadata.
// Readers report absence rather than errors: a missing block is an expected
// condition during reorgs, and storage read failures are downgraded at the
// store layer.
type BlockInfoStore interface {
	// BlockInfo returns the metadata of the block with the given hash,
	// or found=false when it isn't stored.
	BlockInfo(hash *daghash.Hash) (info BlockInfo, found bool)

	// HasBlock returns whether metadata of the block with the given hash
	// is stored.
	HasBlock(hash *daghash.Hash) bool

	// SaveBlockInfo persists the given block metadata.
	SaveBlockInfo(info BlockInfo) error

	// LastAppliedBlockHashes returns the hashes of the latest stable
	// blocks.
	LastAppliedBlockHashes() []*daghash.Hash

	// PendingBlockHashes returns the hashes of blocks that are stored
	// but not yet applied.
	PendingBlockHashes() []*daghash.Hash
}
