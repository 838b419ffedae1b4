package fetch

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const (
	EncodingZstd    = "zstd"
	EncodingTarGzip = "tar+gzip"
	EncodingTarXz   = "tar+xz"
)

// Unpack decodes the file at path and returns the path to use in its place.
// zstd yields a decoded file. Tar archives are extracted to a temporary
// directory; extract then selects one entry (file or directory) inside it.
func Unpack(path, encoding, extract string) (string, error) {
	switch encoding {
	case "":
		if extract != "" {
			return "", fmt.Errorf("extract %q requires an archive encoding", extract)
		}
		return path, nil
	case EncodingZstd:
		if extract != "" {
			return "", fmt.Errorf("extract %q requires an archive encoding", extract)
		}
		return decodeZstd(path)
	case EncodingTarGzip, EncodingTarXz:
		root, err := extractArchive(path, encoding)
		if err != nil {
			return "", err
		}
		return selectArchiveContent(root, extract)
	default:
		return "", fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func decodeZstd(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	decoder, err := zstd.NewReader(src)
	if err != nil {
		return "", err
	}
	defer decoder.Close()

	name := strings.TrimSuffix(filepath.Base(path), ".zst")
	dst, err := os.CreateTemp("", "lbkit-zstd-*-"+name)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, decoder); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("decode zstd %s: %w", path, err)
	}
	return dst.Name(), nil
}

func openArchiveReader(r io.Reader, encoding string) (io.Reader, io.Closer, error) {
	switch encoding {
	case EncodingTarGzip:
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gzipReader, gzipReader, nil
	case EncodingTarXz:
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xzReader, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported archive encoding %q", encoding)
	}
}

func extractArchive(path, encoding string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, closer, err := openArchiveReader(f, encoding)
	if err != nil {
		return "", err
	}
	if closer != nil {
		defer closer.Close()
	}

	root, err := os.MkdirTemp("", "lbkit-archive-*")
	if err != nil {
		return "", err
	}

	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if err := extractEntry(root, header, tarReader); err != nil {
			return "", err
		}
	}
	return root, nil
}

func extractEntry(root string, header *tar.Header, body io.Reader) error {
	if header.Name == "./" || header.Name == "." {
		return nil
	}
	entryPath, err := normalizeArchiveEntryName(header.Name)
	if err != nil {
		return err
	}
	target, err := resolveArchiveTargetPath(root, entryPath)
	if err != nil {
		return err
	}

	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, 0o755)
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.Symlink(header.Linkname, target)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		mode := header.FileInfo().Mode().Perm()
		if mode == 0 {
			mode = 0o644
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, body); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	default:
		return nil
	}
}

func selectArchiveContent(root, extract string) (string, error) {
	if strings.TrimSpace(extract) == "" {
		return root, nil
	}
	entryPath, err := normalizeArchiveEntryName(extract)
	if err != nil {
		return "", err
	}
	target, err := resolveArchiveTargetPath(root, entryPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("extract path %q not found in archive", extract)
		}
		return "", err
	}
	return target, nil
}

func normalizeArchiveEntryName(value string) (string, error) {
	cleaned := filepath.Clean(value)
	cleaned = strings.TrimPrefix(cleaned, "./")
	if cleaned == "." || cleaned == "" {
		return "", fmt.Errorf("invalid archive entry path %q", value)
	}
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry path escapes root: %q", value)
	}
	return filepath.ToSlash(cleaned), nil
}

func resolveArchiveTargetPath(root, rel string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(rel))
	cleanRoot := filepath.Clean(root)
	cleanTarget := filepath.Clean(target)
	if cleanTarget != cleanRoot && !strings.HasPrefix(cleanTarget, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry path escapes target root: %q", rel)
	}
	return target, nil
}
