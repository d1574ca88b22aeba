// Package logging provides the size-rotated log file used by the CLI.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const (
	DefaultMaxSize    = 10 << 20
	DefaultMaxBackups = 5
	FileName          = "aistudio.log"
)

// RotatingFile is an io.Writer that appends to a file and shifts it to
// name.1, name.2, ... once it grows past MaxSize
type RotatingFile struct {
	path       string
	maxSize    int64
	maxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewRotatingFile creates a writer for path. The file is opened lazily.
func NewRotatingFile(path string, maxSize int64, maxBackups int) *RotatingFile {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &RotatingFile{path: path, maxSize: maxSize, maxBackups: maxBackups}
}

func (f *RotatingFile) open() error {
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	f.file = file
	f.size = info.Size()
	return nil
}

func (f *RotatingFile) rotate() error {
	if err := f.closeFile(); err != nil {
		return err
	}

	for i := f.maxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", f.path, i), fmt.Sprintf("%s.%d", f.path, i+1))
	}
	if f.maxBackups > 0 {
		os.Rename(f.path, f.path+".1")
	} else {
		os.Remove(f.path)
	}
	return f.open()
}

func (f *RotatingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		if err := f.open(); err != nil {
			return 0, err
		}
	}
	if f.size > 0 && f.size+int64(len(p)) > f.maxSize {
		if err := f.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := f.file.Write(p)
	f.size += int64(n)
	return n, err
}

// Close closes the underlying file
func (f *RotatingFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeFile()
}

func (f *RotatingFile) closeFile() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// Setup returns a logger writing to stderr and, when dir is set, to a
// rotating aistudio.log in dir. The returned closer releases the file.
func Setup(dir string, verbose bool) (*log.Logger, io.Closer, error) {
	var out io.Writer = io.Discard
	if verbose {
		out = os.Stderr
	}
	if dir == "" {
		return log.New(out, "[aistudio] ", log.LstdFlags), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	file := NewRotatingFile(filepath.Join(dir, FileName), DefaultMaxSize, DefaultMaxBackups)
	logger := log.New(io.MultiWriter(out, file), "[aistudio] ", log.Ldate|log.Ltime|log.Lshortfile)
	return logger, file, nil
}
