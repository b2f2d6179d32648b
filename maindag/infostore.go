package maindag

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ubixnet/ubixd/infrastructure/db/dbaccess"
	"github.com/ubixnet/ubixd/util/daghash"
)

// StoredBlockInfo is the concrete block metadata record persisted by the
// node. It carries exactly the fields the index needs.
type StoredBlockInfo struct {
	hash         *daghash.Hash
	height       uint64
	parentHashes []*daghash.Hash
	bad          bool
	final        bool
	conciliumID  uint32
}

// NewStoredBlockInfo builds the metadata record for one block.
func NewStoredBlockInfo(hash *daghash.Hash, height uint64, parentHashes []*daghash.Hash,
	bad bool, final bool, conciliumID uint32) *StoredBlockInfo {

	return &StoredBlockInfo{
		hash:         hash,
		height:       height,
		parentHashes: parentHashes,
		bad:          bad,
		final:        final,
		conciliumID:  conciliumID,
	}
}

// Hash returns the block's hash.
func (info *StoredBlockInfo) Hash() *daghash.Hash { return info.hash }

// Height returns the block's height.
func (info *StoredBlockInfo) Height() uint64 { return info.height }

// ParentHashes returns the hashes of the block's direct parents.
func (info *StoredBlockInfo) ParentHashes() []*daghash.Hash { return info.parentHashes }

// IsBad returns whether the block failed validation.
func (info *StoredBlockInfo) IsBad() bool { return info.bad }

// IsFinal returns whether the block has been finalized.
func (info *StoredBlockInfo) IsFinal() bool { return info.final }

// ConciliumID returns the id of the concilium that witnessed the block.
func (info *StoredBlockInfo) ConciliumID() uint32 { return info.conciliumID }

// blockInfoRecord is the persisted JSON form of StoredBlockInfo.
type blockInfoRecord struct {
	Height       uint64   `json:"height"`
	ParentHashes []string `json:"parentHashes"`
	Bad          bool     `json:"bad"`
	Final        bool     `json:"final"`
	ConciliumID  uint32   `json:"conciliumId"`
}

func serializeBlockInfo(info BlockInfo) ([]byte, error) {
	record := blockInfoRecord{
		Height:       info.Height(),
		ParentHashes: daghash.Strings(info.ParentHashes()),
		Bad:          info.IsBad(),
		Final:        info.IsFinal(),
		ConciliumID:  info.ConciliumID(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't serialize block info for %s", info.Hash())
	}
	return data, nil
}

func deserializeBlockInfo(hash *daghash.Hash, data []byte) (*StoredBlockInfo, error) {
	var record blockInfoRecord
	err := json.Unmarshal(data, &record)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't deserialize block info for %s", hash)
	}

	parentHashes := make([]*daghash.Hash, 0, len(record.ParentHashes))
	for _, parentStr := range record.ParentHashes {
		parentHash, err := daghash.NewHashFromStr(parentStr)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed parent hash in block info for %s", hash)
		}
		parentHashes = append(parentHashes, parentHash)
	}

	return &StoredBlockInfo{
		hash:         hash,
		height:       record.Height,
		parentHashes: parentHashes,
		bad:          record.Bad,
		final:        record.Final,
		conciliumID:  record.ConciliumID,
	}, nil
}

// DBBlockInfoStore is a BlockInfoStore backed by the node's database.
// Read failures are downgraded to absence and logged at debug level, per
// the index's read policy.
type DBBlockInfoStore struct {
	databaseContext *dbaccess.DatabaseContext
}

// NewDBBlockInfoStore returns a BlockInfoStore over the given database.
func NewDBBlockInfoStore(databaseContext *dbaccess.DatabaseContext) *DBBlockInfoStore {
	return &DBBlockInfoStore{databaseContext: databaseContext}
}

// BlockInfo returns the metadata of the block with the given hash, or
// found=false when it isn't stored.
func (store *DBBlockInfoStore) BlockInfo(hash *daghash.Hash) (BlockInfo, bool) {
	data, found, err := dbaccess.FetchBlockInfo(store.databaseContext, hash.CloneBytes())
	if err != nil {
		log.Debugf("Error reading block info for %s: %s", hash, err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	info, err := deserializeBlockInfo(hash, data)
	if err != nil {
		log.Debugf("Discarding malformed block info for %s: %s", hash, err)
		return nil, false
	}
	return info, true
}

// HasBlock returns whether metadata of the block with the given hash is
// stored.
func (store *DBBlockInfoStore) HasBlock(hash *daghash.Hash) bool {
	exists, err := dbaccess.HasBlockInfo(store.databaseContext, hash.CloneBytes())
	if err != nil {
		log.Debugf("Error checking block info for %s: %s", hash, err)
		return false
	}
	return exists
}

// SaveBlockInfo persists the given block metadata.
func (store *DBBlockInfoStore) SaveBlockInfo(info BlockInfo) error {
	data, err := serializeBlockInfo(info)
	if err != nil {
		return err
	}
	return dbaccess.StoreBlockInfo(store.databaseContext, info.Hash().CloneBytes(), data)
}

// LastAppliedBlockHashes returns the hashes of the latest stable blocks.
func (store *DBBlockInfoStore) LastAppliedBlockHashes() []*daghash.Hash {
	data, found, err := dbaccess.FetchLastAppliedBlockHashes(store.databaseContext)
	if err != nil {
		log.Debugf("Error reading last applied block hashes: %s", err)
		return nil
	}
	if !found {
		return nil
	}
	return deserializeHashList("last applied block hashes", data)
}

// SaveLastAppliedBlockHashes persists the hashes of the latest stable
// blocks.
func (store *DBBlockInfoStore) SaveLastAppliedBlockHashes(hashes []*daghash.Hash) error {
	data, err := serializeHashList(hashes)
	if err != nil {
		return err
	}
	return dbaccess.StoreLastAppliedBlockHashes(store.databaseContext, data)
}

// PendingBlockHashes returns the hashes of blocks that are stored but not
// yet applied.
func (store *DBBlockInfoStore) PendingBlockHashes() []*daghash.Hash {
	data, found, err := dbaccess.FetchPendingBlockHashes(store.databaseContext)
	if err != nil {
		log.Debugf("Error reading pending block hashes: %s", err)
		return nil
	}
	if !found {
		return nil
	}
	return deserializeHashList("pending block hashes", data)
}

// SavePendingBlockHashes persists the hashes of blocks that are stored but
// not yet applied.
func (store *DBBlockInfoStore) SavePendingBlockHashes(hashes []*daghash.Hash) error {
	data, err := serializeHashList(hashes)
	if err != nil {
		return err
	}
	return dbaccess.StorePendingBlockHashes(store.databaseContext, data)
}

func serializeHashList(hashes []*daghash.Hash) ([]byte, error) {
	data, err := json.Marshal(daghash.Strings(hashes))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't serialize hash list")
	}
	return data, nil
}

func deserializeHashList(what string, data []byte) []*daghash.Hash {
	var hashStrs []string
	err := json.Unmarshal(data, &hashStrs)
	if err != nil {
		log.Debugf("Discarding malformed %s: %s", what, err)
		return nil
	}

	hashes := make([]*daghash.Hash, 0, len(hashStrs))
	for _, hashStr := range hashStrs {
		hash, err := daghash.NewHashFromStr(hashStr)
		if err != nil {
			log.Debugf("Discarding malformed hash in %s: %s", what, err)
			return nil
		}
		hashes = append(hashes, hash)
	}
	return hashes
}
