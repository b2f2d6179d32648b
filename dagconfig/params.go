package dagconfig

import "github.com/ubixnet/ubixd/util/daghash"

// Params defines a UBIX network by its parameters. These parameters may be
// used by applications to differentiate networks as well as addresses and
// keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// GenesisHash is the sentinel hash of the DAG root block. Its height
	// is zero and it has no parents.
	GenesisHash *daghash.Hash
}

// MainnetParams defines the network parameters for the main UBIX network.
var MainnetParams = Params{
	Name:        "ubix-mainnet",
	GenesisHash: newHashFromStr("7572890fbb95e58e5c6568f97a1b92c40c14aef83a2e3e1e2a2f24c3b8b10401"),
}

// TestnetParams defines the network parameters for the test UBIX network.
var TestnetParams = Params{
	Name:        "ubix-testnet",
	GenesisHash: newHashFromStr("2750b8571f1b0f88e54a85fc52bdef72a5e59e8617eab41bd6c7342dd7d06a02"),
}

// SimnetParams defines the network parameters for the simulation test
// network. This network is similar to the normal test network except it is
// intended for private use within a group of individuals doing simulation
// testing.
var SimnetParams = Params{
	Name:        "ubix-simnet",
	GenesisHash: newHashFromStr("9e7d8d72e04a1c43f9b53da1c2d77e8b64e50ab67af7e5139f901f54a2a4ec03"),
}

// newHashFromStr converts the passed big-endian hex string into a
// daghash.Hash. It only differs from the one available in daghash in that
// it panics on an error since it will only be called with hard-coded, and
// therefore known good, hashes.
func newHashFromStr(hexStr string) *daghash.Hash {
	hash, err := daghash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}
