package maindag

import (
	"github.com/pkg/errors"

	"github.com/ubixnet/ubixd/infrastructure/logger"
	"github.com/ubixnet/ubixd/util/daghash"
)

// ErrBadBlockInfo reports that reconstruction hit a block whose metadata is
// missing or marked bad. The persisted block store is supposed to hold a
// well-formed record for every reachable block, so this aborts the rebuild.
var ErrBadBlockInfo = errors.New("missing or bad block info")

// RebuildIndex reconstructs a fresh-generation main DAG index from the
// node's persisted block metadata. The walk starts at the pending block
// hashes (or, when there are none, at the last applied ones) and follows
// parent pointers down toward genesis, adding every block on the way.
//
// Reconstruction is the only writer of historical edges; at steady state
// only the block processor writes.
func RebuildIndex(cfg *Config) (*DagIndex, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "RebuildIndex")
	defer onEnd()

	// Force a fresh generation so the rebuilt index never collides with a
	// previous one inside the same database.
	rebuildCfg := *cfg
	rebuildCfg.Prefix = ""
	index, err := New(&rebuildCfg)
	if err != nil {
		return nil, err
	}

	store := cfg.InfoStore
	frontier := store.PendingBlockHashes()
	if len(frontier) == 0 {
		frontier = store.LastAppliedBlockHashes()
	}
	if len(frontier) == 0 {
		log.Infof("No blocks to rebuild the main DAG index from")
		return index, nil
	}

	queued := make(map[daghash.Hash]struct{})
	for _, hash := range frontier {
		queued[*hash] = struct{}{}
	}

	blocksAdded := 0
	for len(frontier) > 0 {
		var nextFrontier []*daghash.Hash
		for _, hash := range frontier {
			info, found := store.BlockInfo(hash)
			if !found {
				if *hash == index.genesisHash {
					// The sentinel may predate metadata persistence.
					log.Debugf("No block info for genesis %s, leaving it unindexed", hash)
					continue
				}
				return nil, errors.Wrapf(ErrBadBlockInfo, "no block info for %s", hash)
			}
			if info.IsBad() {
				return nil, errors.Wrapf(ErrBadBlockInfo, "block %s is marked bad", hash)
			}

			err := index.AddBlock(info)
			if err != nil {
				return nil, err
			}
			blocksAdded++
			reindexedBlocks.Inc()

			if *hash == index.genesisHash {
				continue
			}
			for _, parentHash := range info.ParentHashes() {
				if _, alreadyQueued := queued[*parentHash]; alreadyQueued {
					continue
				}
				if index.Has(parentHash) {
					continue
				}
				queued[*parentHash] = struct{}{}
				nextFrontier = append(nextFrontier, parentHash)
			}
		}
		frontier = nextFrontier
	}

	log.Infof("Rebuilt the main DAG index: %d blocks, order %d", blocksAdded, index.Order())
	return index, nil
}
