package driver

import (
	"fmt"
	"os"
	"strings"
	"time"

	e "github.com/pkg/errors"
)

// ManifestEntry accumulates every file a single top-level input produced,
// across all rounds of the fixed-point loop — nested extractions are
// folded into the entry of the original input that ultimately led to them.
type ManifestEntry struct {
	Input   string
	Outputs []string
}

// Manifest is the human-readable report the driver assembles while running.
type Manifest struct {
	entries map[string]*ManifestEntry
	order   []string
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{entries: make(map[string]*ManifestEntry)}
}

// Start registers a top-level input, creating its entry if this is the
// first time it's seen.
func (m *Manifest) Start(input string) {
	if _, ok := m.entries[input]; ok {
		return
	}
	m.entries[input] = &ManifestEntry{Input: input}
	m.order = append(m.order, input)
}

// Record appends files to the entry for root — the top-level input that,
// transitively, produced them.
func (m *Manifest) Record(root string, files []string) {
	entry, ok := m.entries[root]
	if !ok {
		m.Start(root)
		entry = m.entries[root]
	}
	entry.Outputs = append(entry.Outputs, files...)
}

// Entries returns the accumulated entries in registration order.
func (m *Manifest) Entries() []*ManifestEntry {
	out := make([]*ManifestEntry, 0, len(m.order))
	for _, input := range m.order {
		out = append(out, m.entries[input])
	}
	return out
}

// String renders the manifest as a one-block-per-input text report.
func (m *Manifest) String() string {
	var sb strings.Builder
	for _, entry := range m.Entries() {
		fmt.Fprintf(&sb, "In:  %s\n", entry.Input)
		if len(entry.Outputs) == 0 {
			fmt.Fprintf(&sb, "Out: (nothing extracted)\n")
		}
		for _, out := range entry.Outputs {
			fmt.Fprintf(&sb, "Out: %s\n", out)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteTo writes the manifest to dir, timestamped to the second so repeated
// runs don't clobber each other's reports.
func (m *Manifest) WriteTo(dir string) (string, error) {
	name := fmt.Sprintf("flare-report-%s.txt", time.Now().UTC().Format("20060102T150405Z"))
	path := dir + string(os.PathSeparator) + name

	if err := os.WriteFile(path, []byte(m.String()), 0o644); err != nil {
		return "", e.Wrapf(err, "driver: write manifest %q", path)
	}
	return path, nil
}
