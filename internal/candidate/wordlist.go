package candidate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultWordlistSize reaches into phase 4 so that every strategy contributes.
const DefaultWordlistSize = 25000

// WriteWordlist writes the candidates for attempts [0, size) to w, one per
// line, skipping any the generator has already seen. It returns the number
// of lines written.
func WriteWordlist(w io.Writer, gen *Generator, seed string, size int) (int, error) {
	bw := bufio.NewWriter(w)
	written := 0
	for attempt := range uint64(max(size, 0)) {
		c := gen.Generate(seed, attempt)
		if !gen.Remember(c) {
			continue
		}
		if _, err := bw.WriteString(c + "\n"); err != nil {
			return written, err
		}
		written++
	}
	return written, bw.Flush()
}

// FileWordlist materializes wordlists on disk with a shared generator.
type FileWordlist struct {
	Gen  *Generator
	Size int
}

// NewFileWordlist returns a builder writing size attempts per wordlist.
// A non-positive size selects DefaultWordlistSize.
func NewFileWordlist(gen *Generator, size int) *FileWordlist {
	if size <= 0 {
		size = DefaultWordlistSize
	}
	return &FileWordlist{Gen: gen, Size: size}
}

// Build truncates path and fills it with candidates for seed. The dedupe set
// is cleared first so that every wordlist stands on its own.
func (f *FileWordlist) Build(path, seed string) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create wordlist dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create wordlist: %w", err)
	}

	f.Gen.ClearCache()
	n, err := WriteWordlist(file, f.Gen, seed, f.Size)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write wordlist %s: %w", path, err)
	}
	return n, nil
}
