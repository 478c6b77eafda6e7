package bank

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Reader locates and loads resources out of bankNN files under a data
// directory.
type Reader struct {
	dataDir string
}

// NewReader returns a Reader rooted at dataDir.
func NewReader(dataDir string) *Reader {
	return &Reader{dataDir: dataDir}
}

// Load returns the unpacked byte blob described by e. If PackedSize equals
// Size the stored bytes are already raw and are returned as-is; otherwise
// they are run through Decompress.
func (r *Reader) Load(e MemEntry) ([]byte, error) {
	name := fmt.Sprintf("bank%02x", e.BankID)
	path := filepath.Join(r.dataDir, name)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bank: open %s: %w", name, err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(e.BankOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("bank: seek %s: %w", name, err)
	}

	packed := make([]byte, e.PackedSize)
	if _, err := io.ReadFull(f, packed); err != nil {
		return nil, fmt.Errorf("bank: read %s at offset %#x: %w", name, e.BankOffset, err)
	}

	if e.PackedSize == e.Size {
		return packed, nil
	}
	out, err := Decompress(packed)
	if err != nil {
		return nil, fmt.Errorf("bank: decompress entry from %s: %w", name, err)
	}
	return out, nil
}
