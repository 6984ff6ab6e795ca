package trace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirStore writes <Dir>/<requestID>/<name>.
type DirStore struct{ Dir string }

func (d *DirStore) Put(_ context.Context, requestID, name string, content []byte) error {
	id, err := cleanSegment(requestID)
	if err != nil {
		return err
	}
	file, err := cleanSegment(name)
	if err != nil {
		return err
	}
	dir := filepath.Join(d.Dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, file), content, 0o644)
}

// cleanSegment rejects anything that could escape the trace directory.
func cleanSegment(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return "", fmt.Errorf("invalid path segment %q", s)
	}
	return s, nil
}
