package daghash

import (
	"bytes"
	"reflect"
	"testing"
)

// genesisHash is an arbitrary well-formed hash used across the tests.
var genesisHash = Hash([HashSize]byte{
	0xdc, 0x5f, 0x5b, 0x5b, 0x1d, 0xc2, 0xa7, 0x25,
	0x49, 0xd5, 0x1d, 0x4d, 0xee, 0xd7, 0xa4, 0x8b,
	0xaf, 0xd3, 0x14, 0x4b, 0x56, 0x78, 0x98, 0xb1,
	0x8c, 0xfd, 0x9f, 0x69, 0xdd, 0xcf, 0xbb, 0x63,
})

// TestHash tests the Hash API.
func TestHash(t *testing.T) {
	hashStr := "a0810ac680a3eb3f82edc878cea25ec41d6b790744e5daeef4fb8c25ec410810"
	hash, err := NewHashFromStr(hashStr)
	if err != nil {
		t.Errorf("NewHashFromStr: %v", err)
	}

	buf := []byte{
		0x79, 0xa6, 0x1a, 0xdb, 0xc6, 0xe5, 0xa2, 0xe1,
		0x39, 0xd2, 0x71, 0x3a, 0x54, 0x6e, 0xc7, 0xc8,
		0x75, 0x63, 0x2e, 0x75, 0xf1, 0xdf, 0x9c, 0x3f,
		0xa6, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}

	otherHash, err := NewHash(buf)
	if err != nil {
		t.Errorf("NewHash: unexpected error %v", err)
	}

	// Ensure proper size.
	if len(otherHash) != HashSize {
		t.Errorf("NewHash: hash length mismatch - got: %v, want: %v",
			len(otherHash), HashSize)
	}

	// Ensure contents match.
	if !bytes.Equal(otherHash[:], buf) {
		t.Errorf("NewHash: hash contents mismatch - got: %v, want: %v",
			otherHash[:], buf)
	}

	// Ensure the two hashes don't match.
	if otherHash.IsEqual(hash) {
		t.Errorf("IsEqual: hash contents should not match - got: %v, want: %v",
			otherHash, hash)
	}

	// Set hash from byte slice and ensure contents match.
	err = otherHash.SetBytes(hash.CloneBytes())
	if err != nil {
		t.Errorf("SetBytes: %v", err)
	}
	if !otherHash.IsEqual(hash) {
		t.Errorf("IsEqual: hash contents mismatch - got: %v, want: %v",
			otherHash, hash)
	}

	// Ensure nil hashes are handled properly.
	if !(*Hash)(nil).IsEqual(nil) {
		t.Error("IsEqual: nil hashes should match")
	}
	if otherHash.IsEqual(nil) {
		t.Error("IsEqual: non-nil hash matches nil hash")
	}

	// Invalid size for SetBytes.
	err = otherHash.SetBytes([]byte{0x00})
	if err == nil {
		t.Errorf("SetBytes: failed to received expected err - got: nil")
	}

	// Invalid size for NewHash.
	invalidHash := make([]byte, HashSize+1)
	_, err = NewHash(invalidHash)
	if err == nil {
		t.Errorf("NewHash: failed to received expected err - got: nil")
	}
}

// TestHashString tests the stringized output for hashes.
func TestHashString(t *testing.T) {
	wantStr := "dc5f5b5b1dc2a72549d51d4deed7a48bafd3144b567898b18cfd9f69ddcfbb63"
	hashStr := genesisHash.String()
	if hashStr != wantStr {
		t.Errorf("String: wrong hash string - got %v, want %v",
			hashStr, wantStr)
	}
}

// TestNewHashFromStr executes tests against the NewHashFromStr function.
func TestNewHashFromStr(t *testing.T) {
	tests := []struct {
		in   string
		want Hash
		err  bool
	}{
		// Genesis hash.
		{
			"dc5f5b5b1dc2a72549d51d4deed7a48bafd3144b567898b18cfd9f69ddcfbb63",
			genesisHash,
			false,
		},

		// Empty string.
		{
			"",
			ZeroHash,
			false,
		},

		// Single digit hash, right-aligned.
		{
			"1",
			Hash([HashSize]byte{
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
			}),
			false,
		},

		// Hash string that is too long.
		{
			"01234567890123456789012345678901234567890123456789012345678912345",
			ZeroHash,
			true,
		},

		// Hash string that contains non-hex chars.
		{
			"abcdefg",
			ZeroHash,
			true,
		},
	}

	for i, test := range tests {
		result, err := NewHashFromStr(test.in)
		if test.err != (err != nil) {
			t.Errorf("NewHashFromStr #%d unexpected error state: %v",
				i, err)
			continue
		}
		if err != nil {
			continue
		}
		if !test.want.IsEqual(result) {
			t.Errorf("NewHashFromStr #%d: got %v, want %v", i,
				result, test.want)
			continue
		}
	}
}

// TestAreEqual executes tests against the AreEqual function.
func TestAreEqual(t *testing.T) {
	hash0, _ := NewHashFromStr("3846eb7b07b2dcf3f09a38a0b0e3854da4cfe6ed2e4fe78b3c74a40f8f0a0a00")
	hash1, _ := NewHashFromStr("a215fa3cb9c1d634e166e2ab30c4819a28c8bf897e12dcdd1ac434b000000000")
	hash2, _ := NewHashFromStr("c8bf897e12dcdd1ac434b000000000a215fa3cb9c1d634e166e2ab30c4819a28")
	hashes0To2 := []*Hash{hash0, hash1, hash2}
	hashes1To2 := []*Hash{hash1, hash2}
	hashes0To2Shuffled := []*Hash{hash2, hash0, hash1}

	tests := []struct {
		name     string
		first    []*Hash
		second   []*Hash
		expected bool
	}{
		{
			name:     "self-equality",
			first:    hashes0To2,
			second:   hashes0To2,
			expected: true,
		},
		{
			name:     "same members, different order",
			first:    hashes0To2,
			second:   hashes0To2Shuffled,
			expected: false,
		},
		{
			name:     "different lengths",
			first:    hashes0To2,
			second:   hashes1To2,
			expected: false,
		},
	}

	for _, test := range tests {
		result := AreEqual(test.first, test.second)
		if result != test.expected {
			t.Errorf("unexpected AreEqual result for test \"%s\". "+
				"Expected: %t, got: %t", test.name, test.expected, result)
		}
	}
}

// TestSort verifies hashes are ordered by raw byte comparison.
func TestSort(t *testing.T) {
	hash0, _ := NewHashFromStr("0000000000000000000000000000000000000000000000000000000000000001")
	hash1, _ := NewHashFromStr("1000000000000000000000000000000000000000000000000000000000000000")
	hash2, _ := NewHashFromStr("f000000000000000000000000000000000000000000000000000000000000000")

	hashes := []*Hash{hash2, hash0, hash1}
	Sort(hashes)

	expected := []*Hash{hash0, hash1, hash2}
	if !reflect.DeepEqual(hashes, expected) {
		t.Errorf("Sort: got %v, want %v", Strings(hashes), Strings(expected))
	}
}
