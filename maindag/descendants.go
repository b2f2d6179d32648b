package maindag

import (
	"github.com/ubixnet/ubixd/util/daghash"
)

// BlocksFromLastKnown returns the hashes of indexed blocks a peer is
// missing, given the hashes it reported as its latest known blocks. The
// walk is breadth-first over direct-child edges, so the blocks closest
// above the peer's are collected first, soft-capped at the index's
// inventory limit (the result may end up one past the cap). The returned
// hashes are sorted by byte order, not by height.
//
// When none of the peer's hashes are in our index, the peer is on a
// divergent DAG and is seeded from genesis instead. The walker takes no
// locks of its own: it sees whatever the underlying queries observe, so a
// concurrently added block may be missed but never fabricated.
func (index *DagIndex) BlocksFromLastKnown(lastKnown []*daghash.Hash) []*daghash.Hash {
	known := make(map[daghash.Hash]uint64)
	for _, hash := range lastKnown {
		if height, found := index.BlockHeight(hash); found {
			known[*hash] = height
		}
	}

	result := make(map[daghash.Hash]struct{})
	frontier := known

	if len(known) == 0 {
		if !index.HasAtHeight(&index.genesisHash, 0) {
			return nil
		}
		log.Debugf("Peer is on a divergent DAG, seeding it from genesis %s",
			index.genesisHash)
		result[index.genesisHash] = struct{}{}
		frontier = map[daghash.Hash]uint64{index.genesisHash: 0}
	}

	for len(frontier) > 0 && len(result) <= index.maxBlocksInv {
		nextFrontier := make(map[daghash.Hash]uint64)
		for hash, height := range frontier {
			hash := hash
			for childHash, childHeight := range index.Children(&hash, height) {
				_, isKnown := known[childHash]
				_, inResult := result[childHash]
				if !isKnown && !inResult {
					nextFrontier[childHash] = childHeight
				}
			}

			if _, isKnown := known[hash]; !isKnown {
				result[hash] = struct{}{}
				if len(result) > index.maxBlocksInv {
					break
				}
			}
		}
		frontier = nextFrontier
	}

	hashes := make([]*daghash.Hash, 0, len(result))
	for hash := range result {
		hash := hash
		hashes = append(hashes, &hash)
	}
	daghash.Sort(hashes)
	return hashes
}
