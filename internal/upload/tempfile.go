package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// withTempFile copies r into a new file in dir and calls fn with its path.
// The file is named by a random UUID plus ext, never by anything the client
// sent. It is removed before withTempFile returns, whatever fn does; a
// removal failure is combined with fn's error.
//
// At most maxBytes are accepted when maxBytes > 0.
func withTempFile(dir, ext string, r io.Reader, maxBytes int64, fn func(path string) error) (err error) {
	path := filepath.Join(dir, uuid.NewString()+strings.ToLower(ext))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create upload file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, removeIfExists(path))
	}()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	err = multierr.Append(err, f.Close())
	if err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}
	if maxBytes > 0 && n > maxBytes {
		return newError(ErrTooLarge, MsgTooLarge, fmt.Errorf("upload exceeds %d bytes", maxBytes))
	}

	return fn(path)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove upload file: %w", err)
	}
	return nil
}
