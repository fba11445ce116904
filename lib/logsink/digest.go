// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import (
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"
)

// Digest is the 32-byte BLAKE3 keyed hash of the uncompressed bytes a
// sink accepted. Compressed and uncompressed logs of the same traffic
// share a digest.
type Digest [32]byte

// String returns the lowercase hex encoding of the digest.
func (digest Digest) String() string {
	return hex.EncodeToString(digest[:])
}

// streamDomainKey is the ASCII domain name, zero-padded to 32 bytes.
// Changing it invalidates every recorded digest.
var streamDomainKey = [32]byte{
	'l', 's', 'p', '-', 'p', 'r', 'o', 'x', 'y', '.', 's', 'e', 's', 's', 'i', 'o',
	'n', '.', 's', 't', 'r', 'e', 'a', 'm', 0, 0, 0, 0, 0, 0, 0, 0,
}

func newDigestHasher() *blake3.Hasher {
	// NewKeyed only fails for a key of the wrong length.
	hasher, err := blake3.NewKeyed(streamDomainKey[:])
	if err != nil {
		panic("logsink: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func sumDigest(hasher *blake3.Hasher) Digest {
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// DigestReader computes the stream digest of everything read from
// reader. Pair it with [OpenReader] to verify a recorded log.
func DigestReader(reader io.Reader) (Digest, error) {
	hasher := newDigestHasher()
	if _, err := io.Copy(hasher, reader); err != nil {
		return Digest{}, err
	}
	return sumDigest(hasher), nil
}
