package automatic

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"lukechampine.com/frand"
)

// GenerateSeeds returns n random seeds for reproducible autoplay batches.
func GenerateSeeds(n int) [][32]byte {
	seeds := make([][32]byte, n)
	for i := range seeds {
		frand.Read(seeds[i][:])
	}
	return seeds
}

// WriteSeeds writes one URL-safe base64 seed per line.
func WriteSeeds(w io.Writer, seeds [][32]byte) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# greed autoplay seeds, base64url, 32 bytes each")
	for _, seed := range seeds {
		fmt.Fprintln(bw, base64.RawURLEncoding.EncodeToString(seed[:]))
	}
	return bw.Flush()
}

// ReadSeeds parses seeds written by WriteSeeds, skipping blank lines and
// comments.
func ReadSeeds(r io.Reader) ([][32]byte, error) {
	var seeds [][32]byte
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		decoded, err := base64.RawURLEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("seed on line %d: %w", line, err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("seed on line %d has %d bytes, want 32", line, len(decoded))
		}
		seeds = append(seeds, [32]byte(decoded))
	}
	return seeds, scanner.Err()
}

func SaveSeeds(seeds [][32]byte, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSeeds(f, seeds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadSeeds(path string) ([][32]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSeeds(f)
}
