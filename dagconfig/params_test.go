package dagconfig

import "testing"

// TestDistinctGenesisHashes asserts that no two networks share a genesis
// sentinel. A shared sentinel would let blocks from one network seed the
// index of another.
func TestDistinctGenesisHashes(t *testing.T) {
	params := []Params{MainnetParams, TestnetParams, SimnetParams}
	for i := range params {
		for j := i + 1; j < len(params); j++ {
			if params[i].GenesisHash.IsEqual(params[j].GenesisHash) {
				t.Errorf("networks %s and %s share a genesis hash",
					params[i].Name, params[j].Name)
			}
		}
	}
}
