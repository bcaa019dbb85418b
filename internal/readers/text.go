package readers

import (
	"fmt"
	"os"
	"unicode/utf8"
)

// TextExtensions are the extensions the text reader handles out of the box.
var TextExtensions = []string{"txt", "md", "rst", "py", "html", "css", "js", "json"}

// TextReader reads UTF-8 text files.
type TextReader struct {
	*extensionSet
}

// NewTextReader returns a text reader for TextExtensions plus extra.
func NewTextReader(extra ...string) *TextReader {
	exts := append(append([]string{}, TextExtensions...), extra...)
	return &TextReader{extensionSet: newExtensionSet("text", exts)}
}

func (r *TextReader) Read(path string) (Content, error) {
	if err := r.check(path); err != nil {
		return Content{}, err
	}
	return r.read(path)
}

func (r *TextReader) read(path string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("read text %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return Content{}, fmt.Errorf("read text %s: content is not valid UTF-8", path)
	}
	return Content{Path: path, Reader: r.name, Raw: data, View: data}, nil
}

func (r *TextReader) ReadBatch(paths []string) ([]Content, error) {
	return readBatch(r, paths)
}

func (r *TextReader) Validate(ext string) bool {
	return withScratchFile(NormalizeExtension(ext),
		func(path string) error { return os.WriteFile(path, []byte("checkpoint"), 0o600) },
		func(path string) error {
			_, err := r.read(path)
			return err
		},
	)
}

func (r *TextReader) Extend(exts ...string) []string {
	return extend(r, r.add, exts)
}
