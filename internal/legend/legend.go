// Package legend maps entities to report group ids through a legend mapping
// file, so devices with machine block names group under their legend wording.
package legend

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"plan-tracer/internal/entity"
)

// Entry is one mapping row. File order is priority order: the first entry
// whose layer matches exactly and whose name is contained in the entity name
// (case-insensitive) wins.
type Entry struct {
	Layer string
	Name  string
	Group string
}

// Mapping is an ordered legend mapping.
type Mapping struct {
	entries []Entry
}

// New wraps explicit entries, preserving order.
func New(entries []Entry) *Mapping {
	return &Mapping{entries: entries}
}

// LoadFile parses a mapping file of lines
//
//	layer,name,group wording
//
// A leading header row "layer,name,legend_info" is skipped, blank lines are
// ignored, and commas inside the group wording are kept.
func LoadFile(path string) (*Mapping, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read legend: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 3)
		if lineNo == 1 && isHeader(parts) {
			continue
		}
		if len(parts) < 3 {
			return nil, fmt.Errorf("legend line %d: want layer,name,group, got %q", lineNo, line)
		}
		entries = append(entries, Entry{
			Layer: strings.TrimSpace(parts[0]),
			Name:  strings.TrimSpace(parts[1]),
			Group: strings.TrimSpace(parts[2]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read legend: %w", err)
	}
	return &Mapping{entries: entries}, nil
}

func isHeader(parts []string) bool {
	if len(parts) < 3 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(parts[0]), "layer") &&
		strings.EqualFold(strings.TrimSpace(parts[1]), "name")
}

// GroupFor resolves the group id for an entity: the first matching legend
// entry, or DefaultGroup of the entity name when nothing matches. A nil
// mapping always falls back.
func (m *Mapping) GroupFor(e *entity.Entity) string {
	if m != nil {
		nameLower := strings.ToLower(e.Name)
		for _, entry := range m.entries {
			if entry.Layer != e.Layer {
				continue
			}
			want := strings.ToLower(strings.TrimSpace(entry.Name))
			if want != "" && strings.Contains(nameLower, want) {
				if entry.Group != "" {
					return entry.Group
				}
				break
			}
		}
	}
	return DefaultGroup(e.Name)
}

// DefaultGroup derives a group id from a block name: the segment after the
// last '$' (xref-prefixed names), truncated at the first '_'.
func DefaultGroup(name string) string {
	if i := strings.LastIndex(name, "$"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "_"); i >= 0 {
		name = name[:i]
	}
	return name
}
