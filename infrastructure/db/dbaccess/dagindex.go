package dbaccess

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/ubixnet/ubixd/infrastructure/db/database"
)

// The main DAG index persists two kinds of records, both living directly
// under the index's per-generation prefix so that the on-disk layout stays
// compatible across node versions:
//
//   <dagPrefix>_<pageIndex> -> JSON page record
//   <dagPrefix>_order       -> UTF-8 decimal entry count

// FetchDagPage retrieves the raw page record stored under pageKey. Read
// failures other than absence are logged at debug level and reported as
// absent.
func FetchDagPage(context *DatabaseContext, pageKey string) ([]byte, bool) {
	data, err := context.db.Get([]byte(pageKey))
	if err != nil {
		if !database.IsNotFoundError(err) {
			log.Debugf("Error reading DAG index page %s: %s", pageKey, err)
		}
		return nil, false
	}
	return data, true
}

// StoreDagPage stores the given serialized page record under pageKey.
// Unlike reads, write failures propagate to the caller.
func StoreDagPage(context *DatabaseContext, pageKey string, data []byte) error {
	err := context.db.Put([]byte(pageKey), data)
	if err != nil {
		return errors.Wrapf(err, "couldn't store DAG index page %s", pageKey)
	}
	return nil
}

// FetchDagOrder returns the total entry count stored under orderKey.
// An absent or unreadable record counts as zero.
func FetchDagOrder(context *DatabaseContext, orderKey string) uint64 {
	data, err := context.db.Get([]byte(orderKey))
	if err != nil {
		if !database.IsNotFoundError(err) {
			log.Debugf("Error reading DAG index order %s: %s", orderKey, err)
		}
		return 0
	}

	order, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		log.Debugf("Malformed DAG index order record %s: %s", orderKey, err)
		return 0
	}
	return order
}

// AdjustDagOrder applies delta to the entry count stored under orderKey in
// a read-modify-write cycle and returns the new count. The count never goes
// below zero.
func AdjustDagOrder(context *DatabaseContext, orderKey string, delta int64) (uint64, error) {
	order := FetchDagOrder(context, orderKey)

	if delta < 0 && uint64(-delta) > order {
		log.Debugf("DAG index order %s underflow: order %d, delta %d", orderKey, order, delta)
		order = 0
	} else {
		order = uint64(int64(order) + delta)
	}

	err := context.db.Put([]byte(orderKey), []byte(strconv.FormatUint(order, 10)))
	if err != nil {
		return 0, errors.Wrapf(err, "couldn't store DAG index order %s", orderKey)
	}
	return order, nil
}
