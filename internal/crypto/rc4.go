// Package crypto implements the RC4 stream cipher used to bulk-encrypt
// squashfs images, with support for decrypting byte ranges at arbitrary
// logical offsets.
package crypto

import (
	"fmt"
	"sync"
)

// KeySize is the only key length accepted by the engine.
const KeySize = 16

// KeystreamState is one RC4 keystream cursor: the 256-entry permutation,
// the two mixing indices and the count of keystream bytes consumed since
// key scheduling. A state only ever moves forward; random access is
// achieved by deriving a fresh state from the key and skipping.
type KeystreamState struct {
	s   [256]byte
	i   uint8
	j   uint8
	pos uint64
}

// newKeystreamState performs RC4 key scheduling: the identity permutation
// is mixed with the key, repeated cyclically, over 256 swap steps.
func newKeystreamState(key []byte) *KeystreamState {
	ks := &KeystreamState{}
	for i := 0; i < 256; i++ {
		ks.s[i] = byte(i)
	}
	var j uint8
	for i := 0; i < 256; i++ {
		j += ks.s[i] + key[i%len(key)]
		ks.s[i], ks.s[j] = ks.s[j], ks.s[i]
	}
	return ks
}

// Clone returns an independent copy of the state. Concurrent consumers
// must each operate on their own clone; a state is never safe to share.
func (ks *KeystreamState) Clone() *KeystreamState {
	c := *ks
	return &c
}

// Position returns the number of keystream bytes consumed so far.
func (ks *KeystreamState) Position() uint64 {
	return ks.pos
}

// next produces one keystream byte.
func (ks *KeystreamState) next() byte {
	ks.i++
	ks.j += ks.s[ks.i]
	ks.s[ks.i], ks.s[ks.j] = ks.s[ks.j], ks.s[ks.i]
	ks.pos++
	return ks.s[ks.s[ks.i]+ks.s[ks.j]]
}

// XORKeyStream XORs src with the next len(src) keystream bytes into dst,
// advancing the cursor. dst and src may be the same slice. Encryption and
// decryption are the same operation.
func (ks *KeystreamState) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("crypto: output buffer smaller than input")
	}
	for n, b := range src {
		dst[n] = b ^ ks.next()
	}
}

// Skip discards n keystream bytes, moving the cursor forward.
func (ks *KeystreamState) Skip(n uint64) {
	for ; n > 0; n-- {
		ks.next()
	}
}

// Engine decrypts byte ranges of one image at arbitrary logical offsets
// under a single 16-byte key. It keeps the most recently advanced
// keystream cursor so that the forward-moving access pattern of table
// decoding never replays the keystream from zero; a request behind the
// cursor re-derives a fresh state from the key.
type Engine struct {
	mu     sync.Mutex
	key    [KeySize]byte
	cursor *KeystreamState
}

// NewEngine validates the key and performs the initial key schedule.
func NewEngine(key []byte) (*Engine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("rc4 key must be %d bytes, got %d", KeySize, len(key))
	}
	e := &Engine{}
	copy(e.key[:], key)
	e.cursor = newKeystreamState(e.key[:])
	return e, nil
}

// DecryptAt writes into buf the plaintext of the ciphertext in buf, as if
// the keystream had been generated from logical offset 0 through
// offset+len(buf). Decryption happens in place.
func (e *Engine) DecryptAt(offset uint64, buf []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cursor == nil || e.cursor.pos > offset {
		e.cursor = newKeystreamState(e.key[:])
	}
	e.cursor.Skip(offset - e.cursor.pos)
	e.cursor.XORKeyStream(buf, buf)
}

// StateAt derives an independent keystream state positioned at offset by
// replaying the skip from zero. Each concurrent consumer must hold its
// own state; the engine's cached cursor is never handed out.
func (e *Engine) StateAt(offset uint64) *KeystreamState {
	ks := newKeystreamState(e.key[:])
	ks.Skip(offset)
	return ks
}
