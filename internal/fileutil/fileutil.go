package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrLimitExceeded reports that a stream exceeded the permitted size.
var ErrLimitExceeded = errors.New("size limit exceeded")

// Written describes a file produced by WriteLimited.
type Written struct {
	Path   string
	Bytes  int64
	SHA256 string
}

// WriteLimited streams r into a new file at dst, failing with ErrLimitExceeded
// once more than limit bytes arrive. A limit <= 0 disables the cap. dst is
// removed on any failure.
func WriteLimited(dst string, r io.Reader, limit int64) (Written, error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return Written{}, err
	}

	hasher := sha256.New()
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	written, err := io.Copy(io.MultiWriter(out, hasher), src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && limit > 0 && written > limit {
		err = fmt.Errorf("%w: more than %d bytes", ErrLimitExceeded, limit)
	}
	if err != nil {
		_ = os.Remove(dst)
		return Written{}, err
	}
	return Written{Path: dst, Bytes: written, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// CopyFile streams src to dst with default permissions (0o644).
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
