package storage

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Provider that records every write. It backs tests
// and dry-run inspection without touching the filesystem.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]struct{}
}

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		files: map[string][]byte{},
		dirs:  map[string]struct{}{},
	}
}

func (s *Memory) Query(_ context.Context, op string, args ...any) (Rows, error) {
	if op != OpRead || len(args) == 0 {
		return nil, nil
	}
	target, _ := args[0].(string)
	s.mu.Lock()
	data, ok := s.files[target]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return &fileRows{data: data}, nil
}

func (s *Memory) Exec(_ context.Context, op string, args ...any) (Result, error) {
	switch op {
	case OpEnsureDir:
		if len(args) > 0 {
			if dir, ok := args[0].(string); ok {
				s.mu.Lock()
				s.dirs[dir] = struct{}{}
				s.mu.Unlock()
			}
		}
	case OpWrite:
		if len(args) >= 2 {
			target, _ := args[0].(string)
			reader, _ := args[1].(io.Reader)
			if target != "" && reader != nil {
				data, err := io.ReadAll(reader)
				if err != nil {
					return emptyResult{}, err
				}
				s.mu.Lock()
				s.files[target] = data
				s.mu.Unlock()
			}
		}
	case OpRemove:
		if len(args) > 0 {
			prefix, _ := args[0].(string)
			s.mu.Lock()
			for key := range s.files {
				if prefix == "" || prefix == "." || key == prefix || strings.HasPrefix(key, prefix+"/") {
					delete(s.files, key)
				}
			}
			s.mu.Unlock()
		}
	}
	return emptyResult{}, nil
}

// File returns the recorded content for path.
func (s *Memory) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	return data, ok
}

// Paths lists every recorded file path in sorted order.
func (s *Memory) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for key := range s.files {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
