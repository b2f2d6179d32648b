package maindag

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash"
	"github.com/pkg/errors"

	"github.com/ubixnet/ubixd/infrastructure/db/dbaccess"
	"github.com/ubixnet/ubixd/util/daghash"
	"github.com/ubixnet/ubixd/util/locks"
)

// The two named lock slots that serialise index mutation. Composite
// operations hold the page lock for their full duration and take the order
// lock only nested inside it, so the lock order is total.
const (
	pageLockName  = "dagIndexPage"
	orderLockName = "dagIndexOrder"
)

// Config holds the wiring and tuning of a DagIndex.
type Config struct {
	// DatabaseContext is the database the index persists its pages in.
	DatabaseContext *dbaccess.DatabaseContext

	// InfoStore resolves block hashes to their metadata.
	InfoStore BlockInfoStore

	// GenesisHash is the sentinel hash of the DAG root.
	GenesisHash *daghash.Hash

	// Step is the number of consecutive heights covered by one page.
	Step uint64

	// PagesInMemory is the page cache capacity.
	PagesInMemory int

	// MaxBlocksInv caps the number of hashes a single descendant
	// enumeration returns.
	MaxBlocksInv int

	// Prefix overrides the index's key namespace. When empty, a fresh
	// generation prefix is derived. Setting it explicitly is only useful
	// for reopening a previously built generation.
	Prefix string
}

// DagIndex answers membership, child and order queries about the node's
// block DAG without loading blocks. Rows are grouped into height-ranged
// pages persisted under the index's generation prefix.
type DagIndex struct {
	databaseContext *dbaccess.DatabaseContext
	infoStore       BlockInfoStore
	genesisHash     daghash.Hash
	step            uint64
	maxBlocksInv    int
	prefix          string
	cache           *pageCache
	mutex           *locks.KeyedMutex
}

// New creates a DagIndex over the given database and block info store.
func New(cfg *Config) (*DagIndex, error) {
	if cfg.DatabaseContext == nil || cfg.InfoStore == nil {
		return nil, errors.New("the index requires a database context and a block info store")
	}
	if cfg.GenesisHash == nil {
		return nil, errors.New("the index requires a genesis hash")
	}
	if cfg.Step < 2 {
		return nil, errors.Errorf("invalid index page step %d", cfg.Step)
	}
	if cfg.PagesInMemory < 1 {
		return nil, errors.Errorf("invalid index page cache capacity %d", cfg.PagesInMemory)
	}
	if cfg.MaxBlocksInv < 1 {
		return nil, errors.Errorf("invalid inventory response cap %d", cfg.MaxBlocksInv)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = newGenerationPrefix()
	}

	cache, err := newPageCache(cfg.PagesInMemory)
	if err != nil {
		return nil, err
	}

	return &DagIndex{
		databaseContext: cfg.DatabaseContext,
		infoStore:       cfg.InfoStore,
		genesisHash:     *cfg.GenesisHash,
		step:            cfg.Step,
		maxBlocksInv:    cfg.MaxBlocksInv,
		prefix:          prefix,
		cache:           cache,
		mutex:           locks.NewKeyedMutex(),
	}, nil
}

var (
	processStart      = time.Now()
	generationCounter uint64
)

// newGenerationPrefix derives a fresh key namespace for one index
// generation. Deriving it from the process start time keeps generations
// from different runs apart inside the same physical database, which is
// what makes hot re-indexing possible without truncating the store.
func newGenerationPrefix() string {
	generation := atomic.AddUint64(&generationCounter, 1)
	seed := fmt.Sprintf("%s/%d", processStart.Format(time.RFC3339Nano), generation)
	return strconv.FormatUint(xxhash.Sum64String(seed), 16)
}

// Prefix returns the index's generation prefix.
func (index *DagIndex) Prefix() string {
	return index.prefix
}

func (index *DagIndex) pageKey(pageIndex uint64) string {
	return fmt.Sprintf("%s_%d", index.prefix, pageIndex)
}

func (index *DagIndex) orderKey() string {
	return index.prefix + "_order"
}

func (index *DagIndex) pageIndexForHeight(height uint64) uint64 {
	return pageIndexForHeight(height, index.step)
}

// loadPage returns the page with the given index, going to the database on
// a cache miss. Must be called with the page lock held.
func (index *DagIndex) loadPage(pageIndex uint64) (pageRecord, bool) {
	if record, ok := index.cache.lookup(pageIndex); ok {
		return record, true
	}

	data, found := dbaccess.FetchDagPage(index.databaseContext, index.pageKey(pageIndex))
	if !found {
		return nil, false
	}
	record, err := deserializePageRecord(data)
	if err != nil {
		log.Debugf("Discarding malformed index page %s: %s", index.pageKey(pageIndex), err)
		return nil, false
	}

	index.cache.insert(pageIndex, record)
	return record, true
}

// flushPage writes the page through to the database and refreshes the
// cache. Must be called with the page lock held; the write belongs to the
// same critical section as the mutation that produced it.
func (index *DagIndex) flushPage(pageIndex uint64, record pageRecord) error {
	data, err := record.serialize()
	if err != nil {
		return err
	}
	err = dbaccess.StoreDagPage(index.databaseContext, index.pageKey(pageIndex), data)
	if err != nil {
		return err
	}
	index.cache.insert(pageIndex, record)
	return nil
}

// adjustOrder moves the index's total entry count by delta. Must be called
// with the page lock held; the order lock is taken nested inside it.
func (index *DagIndex) adjustOrder(delta int64) error {
	token := index.mutex.Acquire(orderLockName)
	defer index.mutex.Release(token)

	_, err := dbaccess.AdjustDagOrder(index.databaseContext, index.orderKey(), delta)
	return err
}

// AddBlock indexes the given block: it becomes a processed row in its own
// height's page, and every parent exactly one height below gains a child
// pointer to it. Parents whose metadata is unavailable are skipped, and
// parents more than one height below are recorded nowhere (gap edges are
// not indexed). AddBlock is idempotent.
func (index *DagIndex) AddBlock(blockInfo BlockInfo) error {
	if blockInfo == nil || blockInfo.Hash() == nil {
		return errors.New("cannot index a block without a hash")
	}

	token := index.mutex.Acquire(pageLockName)
	defer index.mutex.Release(token)

	hash := *blockInfo.Hash()
	height := blockInfo.Height()

	// The genesis sentinel has no parents to point back from.
	if hash != index.genesisHash {
		for _, parentHash := range blockInfo.ParentHashes() {
			err := index.addChildPointer(parentHash, hash, height)
			if err != nil {
				return err
			}
		}
	}

	pageIndex := index.pageIndexForHeight(height)
	record, found := index.loadPage(pageIndex)
	if !found {
		record = newPageRecord()
	}

	entry, exists := record[hash]
	switch {
	case !exists:
		record[hash] = newPageEntry(true)
		err := index.adjustOrder(+1)
		if err != nil {
			return err
		}
	case !entry.processed:
		// The row was a placeholder created by one of its children.
		// Promote it, keeping the children collected so far.
		entry.processed = true
	}

	return index.flushPage(pageIndex, record)
}

// addChildPointer records hash as a child of parentHash when the two are
// exactly one height apart. Must be called with the page lock held.
func (index *DagIndex) addChildPointer(parentHash *daghash.Hash, hash daghash.Hash, height uint64) error {
	parentInfo, found := index.infoStore.BlockInfo(parentHash)
	if !found {
		// Legitimate during reorgs, but also what genuine store
		// corruption looks like, hence the counter.
		missingParentSkips.Inc()
		log.Debugf("No block info for parent %s of block %s, skipping its edge",
			parentHash, hash)
		return nil
	}

	parentHeight := parentInfo.Height()
	pageIndex := index.pageIndexForHeight(parentHeight)
	record, pageFound := index.loadPage(pageIndex)
	if !pageFound {
		record = newPageRecord()
	}

	if height-parentHeight == 1 {
		entry, exists := record[*parentHash]
		if !exists {
			entry = newPageEntry(false)
			record[*parentHash] = entry
			err := index.adjustOrder(+1)
			if err != nil {
				return err
			}
		}
		entry.children[hash] = height
	}

	return index.flushPage(pageIndex, record)
}

// RemoveBlock deletes the block's own row and unlinks it from its parents'
// child maps. A parent row left as a childless placeholder is deleted
// entirely. The order count shrinks by one per deleted row.
func (index *DagIndex) RemoveBlock(blockInfo BlockInfo) error {
	if blockInfo == nil || blockInfo.Hash() == nil {
		return errors.New("cannot remove a block without a hash")
	}

	token := index.mutex.Acquire(pageLockName)
	defer index.mutex.Release(token)

	hash := *blockInfo.Hash()
	pageIndex := index.pageIndexForHeight(blockInfo.Height())
	record, found := index.loadPage(pageIndex)
	if !found {
		return nil
	}

	if _, exists := record[hash]; exists {
		delete(record, hash)
		err := index.adjustOrder(-1)
		if err != nil {
			return err
		}
		err = index.flushPage(pageIndex, record)
		if err != nil {
			return err
		}
	}

	for _, parentHash := range blockInfo.ParentHashes() {
		err := index.removeChildPointer(parentHash, hash)
		if err != nil {
			return err
		}
	}
	return nil
}

// removeChildPointer unlinks hash from parentHash's child map. Must be
// called with the page lock held.
func (index *DagIndex) removeChildPointer(parentHash *daghash.Hash, hash daghash.Hash) error {
	parentInfo, found := index.infoStore.BlockInfo(parentHash)
	if !found {
		return nil
	}

	pageIndex := index.pageIndexForHeight(parentInfo.Height())
	record, pageFound := index.loadPage(pageIndex)
	if !pageFound {
		return nil
	}

	entry, exists := record[*parentHash]
	if exists {
		if _, hasChild := entry.children[hash]; hasChild {
			delete(entry.children, hash)
			if len(entry.children) == 0 && !entry.processed {
				// Nothing points through the placeholder anymore.
				delete(record, *parentHash)
				err := index.adjustOrder(-1)
				if err != nil {
					return err
				}
			}
		}
	}

	return index.flushPage(pageIndex, record)
}

// Has returns whether the block with the given hash has been added to the
// index. The block's height is resolved through the info store; an unknown
// block is simply not in the index.
func (index *DagIndex) Has(hash *daghash.Hash) bool {
	info, found := index.infoStore.BlockInfo(hash)
	if !found {
		return false
	}
	return index.HasAtHeight(hash, info.Height())
}

// HasAtHeight returns whether the block with the given hash and height has
// been added to the index. Placeholder rows don't count: the block itself
// must have been added, not merely referenced as a parent.
func (index *DagIndex) HasAtHeight(hash *daghash.Hash, height uint64) bool {
	token := index.mutex.Acquire(pageLockName)
	defer index.mutex.Release(token)

	record, found := index.loadPage(index.pageIndexForHeight(height))
	if !found {
		return false
	}
	entry, exists := record[*hash]
	return exists && entry.processed
}

// BlockHeight returns the height of the block with the given hash, provided
// the block is present in the index.
func (index *DagIndex) BlockHeight(hash *daghash.Hash) (height uint64, found bool) {
	info, found := index.BlockInfo(hash)
	if !found {
		return 0, false
	}
	return info.Height(), true
}

// BlockInfo returns the metadata of the block with the given hash, provided
// the block is present in the index.
func (index *DagIndex) BlockInfo(hash *daghash.Hash) (info BlockInfo, found bool) {
	info, found = index.infoStore.BlockInfo(hash)
	if !found {
		return nil, false
	}
	if !index.HasAtHeight(hash, info.Height()) {
		return nil, false
	}
	return info, true
}

// Children returns the hashes of the block's direct children, those exactly
// one height above it, mapped to their heights. Unindexed and placeholder
// rows have no children.
func (index *DagIndex) Children(hash *daghash.Hash, height uint64) map[daghash.Hash]uint64 {
	token := index.mutex.Acquire(pageLockName)
	defer index.mutex.Release(token)

	record, found := index.loadPage(index.pageIndexForHeight(height))
	if !found {
		return nil
	}
	entry, exists := record[*hash]
	if !exists || !entry.processed {
		return nil
	}
	return entry.clonedChildren()
}

// Order returns the total number of rows the index holds. Because order
// mutations are not atomic with page writes across process crashes, the
// count is an approximate metric, not an invariant the node may rely on.
func (index *DagIndex) Order() uint64 {
	token := index.mutex.Acquire(orderLockName)
	defer index.mutex.Release(token)

	return dbaccess.FetchDagOrder(index.databaseContext, index.orderKey())
}

// InvalidateCache drops every cached page. It is used when the on-disk
// index store is destroyed for re-indexing.
func (index *DagIndex) InvalidateCache() {
	token := index.mutex.Acquire(pageLockName)
	defer index.mutex.Release(token)

	index.cache.clear()
}
