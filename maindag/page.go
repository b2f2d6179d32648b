package maindag

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ubixnet/ubixd/util/daghash"
)

// pageEntry is one row of an index page. A row exists either because the
// block itself was added (processed=true) or because some added child
// referenced it as a parent (processed=false, a back-pointer placeholder).
// children maps the hashes of direct children, those exactly one height
// above the row's block, to their heights.
type pageEntry struct {
	processed bool
	children  map[daghash.Hash]uint64
}

func newPageEntry(processed bool) *pageEntry {
	return &pageEntry{
		processed: processed,
		children:  make(map[daghash.Hash]uint64),
	}
}

// clonedChildren returns a shallow copy of the row's child map.
func (entry *pageEntry) clonedChildren() map[daghash.Hash]uint64 {
	children := make(map[daghash.Hash]uint64, len(entry.children))
	for childHash, childHeight := range entry.children {
		children[childHash] = childHeight
	}
	return children
}

// pageRecord is the deserialized form of one on-disk index page: every row
// keyed by its block hash.
type pageRecord map[daghash.Hash]*pageEntry

func newPageRecord() pageRecord {
	return make(pageRecord)
}

// pageIndexForHeight derives the page an index row for the given height
// lives in. The formula is embedded in persisted page keys, so it must not
// change: heights within one stride share a page, but the page of the k-th
// stride is keyed k*(step-1) rather than the obvious floor(h/step)*step
// value k*step.
func pageIndexForHeight(height uint64, step uint64) uint64 {
	return height / step * (step - 1)
}

// The persisted JSON shape of a page is a map from the row's block hash
// hex to a two-element tuple:
//
//	{ "<blockHashHex>": [ <processed>, { "<childHashHex>": <childHeight>, ... } ], ... }
//
// The tuple is an array of length exactly 2; any other arity is rejected.

type pageEntryJSON struct {
	processed bool
	children  map[string]uint64
}

func (entry pageEntryJSON) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{entry.processed, entry.children})
}

func (entry *pageEntryJSON) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	err := json.Unmarshal(data, &tuple)
	if err != nil {
		return errors.WithStack(err)
	}
	if len(tuple) != 2 {
		return errors.Errorf("malformed page entry: expected a tuple of 2 elements, got %d", len(tuple))
	}
	err = json.Unmarshal(tuple[0], &entry.processed)
	if err != nil {
		return errors.WithStack(err)
	}
	err = json.Unmarshal(tuple[1], &entry.children)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// serialize encodes the page into its persisted JSON shape.
func (record pageRecord) serialize() ([]byte, error) {
	jsonRecord := make(map[string]pageEntryJSON, len(record))
	for hash, entry := range record {
		children := make(map[string]uint64, len(entry.children))
		for childHash, childHeight := range entry.children {
			children[childHash.String()] = childHeight
		}
		jsonRecord[hash.String()] = pageEntryJSON{
			processed: entry.processed,
			children:  children,
		}
	}

	data, err := json.Marshal(jsonRecord)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't serialize page record")
	}
	return data, nil
}

// deserializePageRecord decodes a page from its persisted JSON shape. Rows
// and children keyed by malformed hashes are rejected.
func deserializePageRecord(data []byte) (pageRecord, error) {
	var jsonRecord map[string]pageEntryJSON
	err := json.Unmarshal(data, &jsonRecord)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't deserialize page record")
	}

	record := newPageRecord()
	for hashStr, jsonEntry := range jsonRecord {
		hash, err := daghash.NewHashFromStr(hashStr)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed row hash %s", hashStr)
		}

		entry := newPageEntry(jsonEntry.processed)
		for childHashStr, childHeight := range jsonEntry.children {
			childHash, err := daghash.NewHashFromStr(childHashStr)
			if err != nil {
				return nil, errors.Wrapf(err, "malformed child hash %s", childHashStr)
			}
			entry.children[*childHash] = childHeight
		}
		record[*hash] = entry
	}
	return record, nil
}
