// Package upload reads user files into memory and keeps track of which
// reads are still in flight.
//
// Every read is tagged with a token. A read that completes after its entry
// was replaced, removed or closed is discarded, so a slow stale read can
// never overwrite newer state.
package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/HugoDaniel/smexplorer/internal/registry"
)

// ErrClosed is returned when adding files to a closed Uploader.
var ErrClosed = errors.New("uploader is closed")

// State is the lifecycle state of an uploaded file.
type State uint8

const (
	// Uploading means a read is in flight.
	Uploading State = iota
	// Uploaded means the content is available.
	Uploaded
	// Failed means the last read returned an error.
	Failed
)

func (s State) String() string {
	switch s {
	case Uploading:
		return "uploading"
	case Uploaded:
		return "uploaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileState is a snapshot of one file. While uploading or after a failure,
// Content holds the previous content, if any.
type FileState struct {
	State   State
	Content *registry.Content
	Err     error
}

// token identifies one read. Only its address matters; the name follows
// the entry across renames.
type token struct {
	name string
}

type entry struct {
	state   State
	content *registry.Content
	err     error
	token   *token
}

// Uploader holds the user's files.
type Uploader struct {
	fs     afero.Fs
	logger logrus.FieldLogger

	mu       sync.Mutex
	entries  map[string]*entry
	inflight int
	idle     chan struct{}
	closed   bool

	wg      sync.WaitGroup
	changed chan struct{}
}

// New creates an Uploader reading from fs. A nil logger discards output.
func New(fs afero.Fs, logger logrus.FieldLogger) *Uploader {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Uploader{
		fs:      fs,
		logger:  logger,
		entries: make(map[string]*entry),
		changed: make(chan struct{}, 1),
	}
}

// Drop starts reading each path. Files are registered under their base
// name, replacing any earlier file of that name.
func (u *Uploader) Drop(paths ...string) error {
	for _, p := range paths {
		p := p
		err := u.start(filepath.Base(p), func() ([]byte, error) {
			return afero.ReadFile(u.fs, p)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Add starts reading r under name. The reader is consumed in a separate
// goroutine.
func (u *Uploader) Add(name string, r io.Reader) error {
	return u.start(name, func() ([]byte, error) {
		return io.ReadAll(r)
	})
}

func (u *Uploader) start(name string, read func() ([]byte, error)) error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return ErrClosed
	}

	tok := &token{name: name}
	var stale *registry.Content
	if old, ok := u.entries[name]; ok {
		stale = old.content
	}
	u.entries[name] = &entry{state: Uploading, content: stale, token: tok}
	if u.inflight == 0 {
		u.idle = make(chan struct{})
	}
	u.inflight++
	u.wg.Add(1)
	u.notify()
	u.mu.Unlock()

	u.logger.WithField("file", name).Debug("reading file")
	go func() {
		defer u.wg.Done()
		data, err := read()
		u.commit(tok, data, err)
	}()
	return nil
}

func (u *Uploader) commit(tok *token, data []byte, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.inflight--
	if u.inflight == 0 {
		close(u.idle)
	}

	logger := u.logger.WithField("file", tok.name)
	e, ok := u.entries[tok.name]
	if u.closed || !ok || e.token != tok {
		logger.Debug("discarding stale read")
		return
	}

	e.token = nil
	if err != nil {
		var perr *os.PathError
		if !errors.As(err, &perr) {
			err = &os.PathError{Op: "read", Path: tok.name, Err: err}
		}
		e.state = Failed
		e.err = err
		logger.WithError(err).Warn("failed to read file")
	} else {
		e.state = Uploaded
		e.content = registry.NewContent(data)
		e.err = nil
		logger.WithField("bytes", len(data)).Debug("file read")
	}
	u.notify()
}

// notify must be called with mu held.
func (u *Uploader) notify() {
	select {
	case u.changed <- struct{}{}:
	default:
	}
}

// Remove forgets a file. An in-flight read for it is discarded.
func (u *Uploader) Remove(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.entries[name]; ok {
		delete(u.entries, name)
		u.notify()
	}
}

// Rename moves a file to a new name, replacing any file already there. An
// in-flight read follows the file.
func (u *Uploader) Rename(name, newName string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	e, ok := u.entries[name]
	if !ok || name == newName {
		return
	}
	delete(u.entries, name)
	u.entries[newName] = e
	if e.token != nil {
		e.token.name = newName
	}
	u.notify()
}

// Files returns a snapshot of every file.
func (u *Uploader) Files() map[string]FileState {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make(map[string]FileState, len(u.entries))
	for name, e := range u.entries {
		out[name] = FileState{State: e.state, Content: e.content, Err: e.err}
	}
	return out
}

// Names returns the names of every file in order.
func (u *Uploader) Names() []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	names := make([]string, 0, len(u.entries))
	for name := range u.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Uploads returns every file that has content. Files still uploading are
// included with their previous content.
func (u *Uploader) Uploads() registry.Uploads {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make(registry.Uploads, len(u.entries))
	for name, e := range u.entries {
		if e.content != nil {
			out[name] = e.content
		}
	}
	return out
}

// Changed is signalled after any change. Signals are coalesced.
func (u *Uploader) Changed() <-chan struct{} {
	return u.changed
}

// Wait blocks until no read is in flight or ctx is done.
func (u *Uploader) Wait(ctx context.Context) error {
	for {
		u.mu.Lock()
		n, idle := u.inflight, u.idle
		u.mu.Unlock()

		if n == 0 {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting files and waits for running reads to return. Their
// results are discarded.
func (u *Uploader) Close() error {
	u.mu.Lock()
	u.closed = true
	u.mu.Unlock()

	u.wg.Wait()
	return nil
}
