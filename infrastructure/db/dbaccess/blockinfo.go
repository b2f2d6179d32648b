package dbaccess

import (
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/ubixnet/ubixd/infrastructure/db/database"
)

var (
	blockInfosBucket = database.MakeBucket([]byte("block-infos"))

	lastAppliedBlockHashesKey = database.MakeBucket().Key([]byte("last-applied-block-hashes"))
	pendingBlockHashesKey     = database.MakeBucket().Key([]byte("pending-block-hashes"))
)

func blockInfoKey(hash []byte) []byte {
	return blockInfosBucket.Key(hash)
}

// StoreBlockInfo stores a block's serialized metadata record in the
// database.
func StoreBlockInfo(context *DatabaseContext, hash []byte, data []byte) error {
	err := context.db.Put(blockInfoKey(hash), data)
	if err != nil {
		return errors.Wrapf(err, "couldn't store block info for %s",
			hex.EncodeToString(hash))
	}
	return nil
}

// FetchBlockInfo returns the serialized metadata record of the block with
// the given hash. Returns found=false if the block had not been previously
// saved; absence is not an error.
func FetchBlockInfo(context *DatabaseContext, hash []byte) (data []byte, found bool, err error) {
	data, err = context.db.Get(blockInfoKey(hash))
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "couldn't fetch block info for %s",
			hex.EncodeToString(hash))
	}
	return data, true, nil
}

// HasBlockInfo returns whether metadata of the block with the given hash
// has been previously saved.
func HasBlockInfo(context *DatabaseContext, hash []byte) (bool, error) {
	return context.db.Has(blockInfoKey(hash))
}

// StoreLastAppliedBlockHashes stores the serialized set of hashes of the
// latest stable blocks.
func StoreLastAppliedBlockHashes(context *DatabaseContext, data []byte) error {
	err := context.db.Put(lastAppliedBlockHashesKey, data)
	return errors.Wrap(err, "couldn't store last applied block hashes")
}

// FetchLastAppliedBlockHashes returns the serialized set of hashes of the
// latest stable blocks.
func FetchLastAppliedBlockHashes(context *DatabaseContext) (data []byte, found bool, err error) {
	return fetchOptional(context, lastAppliedBlockHashesKey)
}

// StorePendingBlockHashes stores the serialized set of hashes of blocks
// that are stored but not yet applied.
func StorePendingBlockHashes(context *DatabaseContext, data []byte) error {
	err := context.db.Put(pendingBlockHashesKey, data)
	return errors.Wrap(err, "couldn't store pending block hashes")
}

// FetchPendingBlockHashes returns the serialized set of hashes of blocks
// that are stored but not yet applied.
func FetchPendingBlockHashes(context *DatabaseContext) (data []byte, found bool, err error) {
	return fetchOptional(context, pendingBlockHashesKey)
}

func fetchOptional(context *DatabaseContext, key []byte) (data []byte, found bool, err error) {
	data, err = context.db.Get(key)
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "couldn't fetch %s", string(key))
	}
	return data, true, nil
}
