package grading

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

var quiet = log.New(io.Discard, "", 0)

type fakeShell struct {
	out      string
	err      error
	chmodErr error
	commands []string
	chmods   []string
}

func (s *fakeShell) Run(_ context.Context, cmd string) (string, error) {
	s.commands = append(s.commands, cmd)
	return s.out, s.err
}

func (s *fakeShell) Chmod(path string, _ os.FileMode) error {
	s.chmods = append(s.chmods, path)
	return s.chmodErr
}

type mapFixtures map[string]string

func (m mapFixtures) Get(key string) (io.ReadCloser, error) {
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("fixture %s: %w", key, os.ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

type fakeFetcher struct {
	bodies map[string]string
	errs   map[string]error
	urls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("GET %s: 404 Not Found", url)
	}
	return []byte(body), nil
}

type memArchive map[string]string

func (a memArchive) Put(key string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	a[key] = string(b)
	return key, nil
}
