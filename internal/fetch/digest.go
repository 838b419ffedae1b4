package fetch

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

const (
	DigestAlgorithmBLAKE3 = "blake3"
	DigestAlgorithmSHA256 = "sha256"
	DigestAlgorithmMD5    = "md5"
)

// ErrChecksumMismatch is returned by Verify when the digest differs.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// SHA256Hex returns lowercase hex encoded digest for content.
func SHA256Hex(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// BLAKE3Hex returns lowercase hex encoded digest for content.
func BLAKE3Hex(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// MD5Hex returns lowercase hex encoded digest for content.
func MD5Hex(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

// Verify checks the file at path against checksum in "algorithm:hex" form.
// An empty checksum always passes.
func Verify(path, checksum string) error {
	algorithm, digest, err := ParseChecksum(checksum)
	if err != nil || algorithm == "" {
		return err
	}
	h, err := newHash(algorithm)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	if computed := hex.EncodeToString(h.Sum(nil)); computed != digest {
		return fmt.Errorf("%w: %s want %s:%s got %s", ErrChecksumMismatch, path, algorithm, digest, computed)
	}
	return nil
}

// ParseChecksum splits "algorithm:hex". Empty input yields empty results.
func ParseChecksum(value string) (string, string, error) {
	raw := strings.TrimSpace(strings.ToLower(value))
	if raw == "" {
		return "", "", nil
	}
	algorithm, digest, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(algorithm) == "" || strings.TrimSpace(digest) == "" {
		return "", "", fmt.Errorf("invalid checksum format %q", value)
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", "", fmt.Errorf("invalid checksum hex %q", value)
	}
	if _, err := newHash(algorithm); err != nil {
		return "", "", err
	}
	return algorithm, digest, nil
}

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case DigestAlgorithmBLAKE3:
		return blake3.New(), nil
	case DigestAlgorithmSHA256:
		return sha256.New(), nil
	case DigestAlgorithmMD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}
}
