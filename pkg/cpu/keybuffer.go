package cpu

import (
	"errors"
	"io"
	"sync"
)

// ErrInputPending is returned by non-blocking readers that have no byte yet.
// The CPU answers it by setting Waiting instead of failing.
var ErrInputPending = errors.New("input pending")

// KeyBuffer queues bytes typed into an interactive front end. It never blocks:
// an empty open buffer reports ErrInputPending, an empty closed one io.EOF.
type KeyBuffer struct {
	mu     sync.Mutex
	keys   []byte
	closed bool
}

func (k *KeyBuffer) PushKey(b byte) {
	k.mu.Lock()
	k.keys = append(k.keys, b)
	k.mu.Unlock()
}

// Close marks the end of input. Queued bytes can still be read.
func (k *KeyBuffer) Close() {
	k.mu.Lock()
	k.closed = true
	k.mu.Unlock()
}

func (k *KeyBuffer) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.keys)
}

func (k *KeyBuffer) ReadByte() (byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.keys) == 0 {
		if k.closed {
			return 0, io.EOF
		}
		return 0, ErrInputPending
	}
	b := k.keys[0]
	k.keys = k.keys[1:]
	return b, nil
}

func (k *KeyBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, err := k.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = b
	return 1, nil
}
