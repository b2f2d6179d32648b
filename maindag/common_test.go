package maindag

import (
	"testing"

	"github.com/ubixnet/ubixd/infrastructure/db/dbaccess"
	"github.com/ubixnet/ubixd/util/daghash"
)

// testGenesisHash is the genesis sentinel used throughout the package
// tests.
var testGenesisHash = testHash(0xee)

// testHash builds a deterministic hash whose first byte is id.
func testHash(id byte) *daghash.Hash {
	hash := &daghash.Hash{}
	hash[0] = id
	return hash
}

// testBlockInfoStore is an in-memory BlockInfoStore.
type testBlockInfoStore struct {
	infos       map[daghash.Hash]BlockInfo
	lastApplied []*daghash.Hash
	pending     []*daghash.Hash
}

func newTestBlockInfoStore() *testBlockInfoStore {
	return &testBlockInfoStore{infos: make(map[daghash.Hash]BlockInfo)}
}

func (store *testBlockInfoStore) BlockInfo(hash *daghash.Hash) (BlockInfo, bool) {
	info, found := store.infos[*hash]
	return info, found
}

func (store *testBlockInfoStore) HasBlock(hash *daghash.Hash) bool {
	_, found := store.infos[*hash]
	return found
}

func (store *testBlockInfoStore) SaveBlockInfo(info BlockInfo) error {
	store.infos[*info.Hash()] = info
	return nil
}

func (store *testBlockInfoStore) LastAppliedBlockHashes() []*daghash.Hash {
	return store.lastApplied
}

func (store *testBlockInfoStore) PendingBlockHashes() []*daghash.Hash {
	return store.pending
}

func (store *testBlockInfoStore) forget(hash *daghash.Hash) {
	delete(store.infos, *hash)
}

// prepareIndexForTest creates a DagIndex over a temporary database and an
// in-memory block info store.
func prepareIndexForTest(t *testing.T, testName string, step uint64, pagesInMemory int,
	maxBlocksInv int) (index *DagIndex, store *testBlockInfoStore, teardownFunc func()) {

	databaseContext, err := dbaccess.New(t.TempDir())
	if err != nil {
		t.Fatalf("%s: error creating database context: %s", testName, err)
	}

	store = newTestBlockInfoStore()
	index, err = New(&Config{
		DatabaseContext: databaseContext,
		InfoStore:       store,
		GenesisHash:     testGenesisHash,
		Step:            step,
		PagesInMemory:   pagesInMemory,
		MaxBlocksInv:    maxBlocksInv,
	})
	if err != nil {
		t.Fatalf("%s: error creating index: %s", testName, err)
	}

	teardownFunc = func() {
		err := databaseContext.Close()
		if err != nil {
			t.Fatalf("%s: error closing database context: %s", testName, err)
		}
	}
	return index, store, teardownFunc
}

// newTestBlockInfo creates block metadata whose hash's first byte is id.
func newTestBlockInfo(id byte, height uint64, parents ...*daghash.Hash) *StoredBlockInfo {
	return NewStoredBlockInfo(testHash(id), height, parents, false, false, 1)
}

// addTestBlock saves the block's metadata and indexes it.
func addTestBlock(t *testing.T, testName string, index *DagIndex, store *testBlockInfoStore,
	info BlockInfo) {

	err := store.SaveBlockInfo(info)
	if err != nil {
		t.Fatalf("%s: error saving block info for %s: %s", testName, info.Hash(), err)
	}
	err = index.AddBlock(info)
	if err != nil {
		t.Fatalf("%s: error adding block %s: %s", testName, info.Hash(), err)
	}
}

// addTestChain indexes genesis followed by a linear chain of length chain
// blocks whose hash ids start at firstID. It returns every added block,
// genesis first.
func addTestChain(t *testing.T, testName string, index *DagIndex, store *testBlockInfoStore,
	firstID byte, chainLength int) []*StoredBlockInfo {

	blocks := make([]*StoredBlockInfo, 0, chainLength+1)

	genesis := NewStoredBlockInfo(testGenesisHash, 0, nil, false, true, 1)
	addTestBlock(t, testName, index, store, genesis)
	blocks = append(blocks, genesis)

	parentHash := testGenesisHash
	for i := 0; i < chainLength; i++ {
		info := newTestBlockInfo(firstID+byte(i), uint64(i+1), parentHash)
		addTestBlock(t, testName, index, store, info)
		blocks = append(blocks, info)
		parentHash = info.Hash()
	}
	return blocks
}

// containsHash reports whether hashes contains the given hash.
func containsHash(hashes []*daghash.Hash, hash *daghash.Hash) bool {
	for _, candidate := range hashes {
		if candidate.IsEqual(hash) {
			return true
		}
	}
	return false
}
