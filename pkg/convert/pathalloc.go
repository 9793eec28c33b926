package convert

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// outputLayout partitions the media tree down to the second, which keeps
// directory fan-out bounded and makes name collisions across requests
// practically impossible without a dedup step.
const outputLayout = "2006/Jan/02/15/04/05"

// PathAllocator derives time-partitioned output paths under a fixed media
// root. Two same-second requests with the same stem resolve to the same path
// and the later write wins; that overwrite policy is deliberate.
type PathAllocator struct {
	fs   afero.Fs
	root string
}

// NewPathAllocator returns an allocator rooted at the media directory.
func NewPathAllocator(fs afero.Fs, root string) *PathAllocator {
	return &PathAllocator{fs: fs, root: root}
}

// OutputPath returns <root>/YYYY/Mon/DD/HH/MM/SS/<stem>.mp3, creating the
// directory chain if it is absent.
func (a *PathAllocator) OutputPath(now time.Time, stem string) (string, error) {
	dir := filepath.Join(a.root, now.Format(outputLayout))
	if err := a.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(dir, stem+".mp3"), nil
}
