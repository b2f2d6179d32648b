package dbaccess

import (
	"bytes"
	"testing"
)

func prepareDatabaseForTest(t *testing.T, testName string) (databaseContext *DatabaseContext, teardownFunc func()) {
	databaseContext, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("%s: New unexpectedly failed: %s", testName, err)
	}
	teardownFunc = func() {
		err := databaseContext.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
	}
	return databaseContext, teardownFunc
}

func TestDagPageRoundTrip(t *testing.T) {
	databaseContext, teardownFunc := prepareDatabaseForTest(t, "TestDagPageRoundTrip")
	defer teardownFunc()

	pageKey := "f00dfeed_99"

	// An unwritten page is absent
	_, found := FetchDagPage(databaseContext, pageKey)
	if found {
		t.Fatalf("TestDagPageRoundTrip: unexpectedly found a page that was never stored")
	}

	pageData := []byte(`{"aa":[true,{}]}`)
	err := StoreDagPage(databaseContext, pageKey, pageData)
	if err != nil {
		t.Fatalf("TestDagPageRoundTrip: StoreDagPage returned unexpected error: %s", err)
	}

	fetchedData, found := FetchDagPage(databaseContext, pageKey)
	if !found {
		t.Fatalf("TestDagPageRoundTrip: stored page not found")
	}
	if !bytes.Equal(fetchedData, pageData) {
		t.Fatalf("TestDagPageRoundTrip: fetched page differs from stored page. Want: %s, got: %s",
			string(pageData), string(fetchedData))
	}
}

func TestDagOrderAdjust(t *testing.T) {
	databaseContext, teardownFunc := prepareDatabaseForTest(t, "TestDagOrderAdjust")
	defer teardownFunc()

	orderKey := "f00dfeed_order"

	// An unwritten order record counts as zero
	if order := FetchDagOrder(databaseContext, orderKey); order != 0 {
		t.Fatalf("TestDagOrderAdjust: expected zero order for a fresh prefix, got %d", order)
	}

	for expected := uint64(1); expected <= 3; expected++ {
		order, err := AdjustDagOrder(databaseContext, orderKey, 1)
		if err != nil {
			t.Fatalf("TestDagOrderAdjust: AdjustDagOrder returned unexpected error: %s", err)
		}
		if order != expected {
			t.Fatalf("TestDagOrderAdjust: expected order %d, got %d", expected, order)
		}
	}

	order, err := AdjustDagOrder(databaseContext, orderKey, -1)
	if err != nil {
		t.Fatalf("TestDagOrderAdjust: AdjustDagOrder returned unexpected error: %s", err)
	}
	if order != 2 {
		t.Fatalf("TestDagOrderAdjust: expected order 2 after decrement, got %d", order)
	}

	// The persisted representation is a decimal string
	if persisted := FetchDagOrder(databaseContext, orderKey); persisted != 2 {
		t.Fatalf("TestDagOrderAdjust: expected persisted order 2, got %d", persisted)
	}
}

func TestDagOrderNeverUnderflows(t *testing.T) {
	databaseContext, teardownFunc := prepareDatabaseForTest(t, "TestDagOrderNeverUnderflows")
	defer teardownFunc()

	orderKey := "f00dfeed_order"
	order, err := AdjustDagOrder(databaseContext, orderKey, -1)
	if err != nil {
		t.Fatalf("TestDagOrderNeverUnderflows: AdjustDagOrder returned unexpected error: %s", err)
	}
	if order != 0 {
		t.Fatalf("TestDagOrderNeverUnderflows: expected order to stay at 0, got %d", order)
	}
}

func TestBlockInfoRoundTrip(t *testing.T) {
	databaseContext, teardownFunc := prepareDatabaseForTest(t, "TestBlockInfoRoundTrip")
	defer teardownFunc()

	hash := []byte{0x01, 0x02, 0x03}
	infoData := []byte(`{"height":7}`)

	_, found, err := FetchBlockInfo(databaseContext, hash)
	if err != nil {
		t.Fatalf("TestBlockInfoRoundTrip: FetchBlockInfo returned unexpected error: %s", err)
	}
	if found {
		t.Fatalf("TestBlockInfoRoundTrip: unexpectedly found block info that was never stored")
	}

	err = StoreBlockInfo(databaseContext, hash, infoData)
	if err != nil {
		t.Fatalf("TestBlockInfoRoundTrip: StoreBlockInfo returned unexpected error: %s", err)
	}

	fetchedData, found, err := FetchBlockInfo(databaseContext, hash)
	if err != nil {
		t.Fatalf("TestBlockInfoRoundTrip: FetchBlockInfo returned unexpected error: %s", err)
	}
	if !found {
		t.Fatalf("TestBlockInfoRoundTrip: stored block info not found")
	}
	if !bytes.Equal(fetchedData, infoData) {
		t.Fatalf("TestBlockInfoRoundTrip: fetched block info differs from stored. Want: %s, got: %s",
			string(infoData), string(fetchedData))
	}

	exists, err := HasBlockInfo(databaseContext, hash)
	if err != nil {
		t.Fatalf("TestBlockInfoRoundTrip: HasBlockInfo returned unexpected error: %s", err)
	}
	if !exists {
		t.Fatalf("TestBlockInfoRoundTrip: HasBlockInfo reported a stored block as missing")
	}
}

func TestHashListsRoundTrip(t *testing.T) {
	databaseContext, teardownFunc := prepareDatabaseForTest(t, "TestHashListsRoundTrip")
	defer teardownFunc()

	_, found, err := FetchPendingBlockHashes(databaseContext)
	if err != nil {
		t.Fatalf("TestHashListsRoundTrip: FetchPendingBlockHashes returned unexpected error: %s", err)
	}
	if found {
		t.Fatalf("TestHashListsRoundTrip: unexpectedly found pending hashes that were never stored")
	}

	pendingData := []byte(`["aa","bb"]`)
	err = StorePendingBlockHashes(databaseContext, pendingData)
	if err != nil {
		t.Fatalf("TestHashListsRoundTrip: StorePendingBlockHashes returned unexpected error: %s", err)
	}
	lastAppliedData := []byte(`["cc"]`)
	err = StoreLastAppliedBlockHashes(databaseContext, lastAppliedData)
	if err != nil {
		t.Fatalf("TestHashListsRoundTrip: StoreLastAppliedBlockHashes returned unexpected error: %s", err)
	}

	fetchedPending, found, err := FetchPendingBlockHashes(databaseContext)
	if err != nil || !found {
		t.Fatalf("TestHashListsRoundTrip: couldn't fetch pending hashes back: found=%t, err=%s", found, err)
	}
	if !bytes.Equal(fetchedPending, pendingData) {
		t.Fatalf("TestHashListsRoundTrip: pending hashes mismatch. Want: %s, got: %s",
			string(pendingData), string(fetchedPending))
	}

	fetchedLastApplied, found, err := FetchLastAppliedBlockHashes(databaseContext)
	if err != nil || !found {
		t.Fatalf("TestHashListsRoundTrip: couldn't fetch last applied hashes back: found=%t, err=%s", found, err)
	}
	if !bytes.Equal(fetchedLastApplied, lastAppliedData) {
		t.Fatalf("TestHashListsRoundTrip: last applied hashes mismatch. Want: %s, got: %s",
			string(lastAppliedData), string(fetchedLastApplied))
	}
}
