package readers

import (
	"fmt"
	"os"
)

// ByteExtensions lists archive, installer and binary formats the byte reader
// accepts. The empty extension covers files like Makefile.
var ByteExtensions = []string{
	"zip", "rar", "7z", "gz", "bz2", "xz", "tar", "tgz",
	"iso", "dmg", "img", "bin", "exe", "dll", "msi",
	"apk", "ipa", "deb", "rpm", "cab", "pkg", "mpkg",
	"msp", "mst", "msu", "mse", "makefile", "",
}

// ByteReader passes file bytes through untouched.
type ByteReader struct {
	*extensionSet
}

func NewByteReader() *ByteReader {
	return &ByteReader{extensionSet: newExtensionSet("byte", ByteExtensions)}
}

func (r *ByteReader) Read(path string) (Content, error) {
	if err := r.check(path); err != nil {
		return Content{}, err
	}
	return r.read(path)
}

func (r *ByteReader) read(path string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("read bytes %s: %w", path, err)
	}
	return Content{Path: path, Reader: r.name, Raw: data, View: data}, nil
}

func (r *ByteReader) ReadBatch(paths []string) ([]Content, error) {
	return readBatch(r, paths)
}

func (r *ByteReader) Validate(ext string) bool {
	return withScratchFile(NormalizeExtension(ext),
		func(path string) error { return os.WriteFile(path, []byte{0x00, 0xff, 0x10}, 0o600) },
		func(path string) error {
			_, err := r.read(path)
			return err
		},
	)
}

func (r *ByteReader) Extend(exts ...string) []string {
	return extend(r, r.add, exts)
}
