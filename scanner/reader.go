// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scanner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

var (
	ErrCameraBusy   = errors.New("camera already in use")
	ErrCameraClosed = errors.New("camera input closed")
)

// ReaderCamera is a Camera fed by newline-delimited payloads that were
// decoded elsewhere. Lines read while the camera is stopped are dropped.
type ReaderCamera struct {
	r    io.Reader
	once sync.Once
	done chan struct{}

	mu       sync.Mutex
	onDecode func(string)
	err      error
}

func NewReaderCamera(r io.Reader) *ReaderCamera {
	return &ReaderCamera{r: r, done: make(chan struct{})}
}

func (c *ReaderCamera) Start(_ context.Context, onDecode func(string)) error {
	select {
	case <-c.done:
		return ErrCameraClosed
	default:
	}

	c.mu.Lock()
	if c.onDecode != nil {
		c.mu.Unlock()
		return ErrCameraBusy
	}
	c.onDecode = onDecode
	c.mu.Unlock()

	c.once.Do(func() { go c.read() })
	return nil
}

func (c *ReaderCamera) Stop() error {
	c.mu.Lock()
	c.onDecode = nil
	c.mu.Unlock()
	return nil
}

// Done is closed when the input is exhausted.
func (c *ReaderCamera) Done() <-chan struct{} {
	return c.done
}

// Err returns the read error, if any, once Done is closed.
func (c *ReaderCamera) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *ReaderCamera) read() {
	defer close(c.done)

	sc := bufio.NewScanner(c.r)
	for sc.Scan() {
		payload := strings.TrimSpace(sc.Text())
		if payload == "" {
			continue
		}
		c.mu.Lock()
		fn := c.onDecode
		c.mu.Unlock()
		if fn != nil {
			fn(payload)
		}
	}

	c.mu.Lock()
	c.err = sc.Err()
	c.mu.Unlock()
}
