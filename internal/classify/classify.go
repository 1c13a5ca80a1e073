// Package classify partitions extracted entities into devices, labels and
// ignored entities according to the configured naming policy.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"plan-tracer/internal/entity"
)

// Classification is the derived kind of an entity. It is assigned exactly
// once per run.
type Classification int

const (
	Ignored Classification = iota
	Device
	Label
)

func (c Classification) String() string {
	switch c {
	case Device:
		return "device"
	case Label:
		return "label"
	default:
		return "ignored"
	}
}

// PatternError reports an invalid classification pattern.
type PatternError struct {
	Option  string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Option, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Config carries the classification policy options.
type Config struct {
	// CategoryFilter is the category allow-set. Empty means all categories
	// are allowed.
	CategoryFilter []string

	// LabelLayerPattern and LabelNamePattern mark label entities; either
	// match suffices.
	LabelLayerPattern string
	LabelNamePattern  string

	// DevicePrefixes mark device entities by literal name prefix.
	DevicePrefixes []string
}

// CategoryMatcher reports whether an entity's category is allowed.
type CategoryMatcher interface {
	Allowed(e *entity.Entity) bool
}

// LabelMatcher reports whether an entity is a textual label.
type LabelMatcher interface {
	IsLabel(e *entity.Entity) bool
}

// DeviceMatcher reports whether an entity is a device symbol.
type DeviceMatcher interface {
	IsDevice(e *entity.Entity) bool
}

// Classifier applies the policy: category filter first, then label, then
// device. An entity matching both label and device rules is a label.
type Classifier struct {
	categories CategoryMatcher
	labels     LabelMatcher
	devices    DeviceMatcher
}

// New compiles the configured patterns into a Classifier. Invalid patterns
// yield a *PatternError.
func New(cfg Config) (*Classifier, error) {
	var layerRe, nameRe *regexp.Regexp
	var err error

	if cfg.LabelLayerPattern != "" {
		layerRe, err = regexp.Compile(cfg.LabelLayerPattern)
		if err != nil {
			return nil, &PatternError{Option: "label layer", Pattern: cfg.LabelLayerPattern, Err: err}
		}
	}
	if cfg.LabelNamePattern != "" {
		nameRe, err = regexp.Compile(cfg.LabelNamePattern)
		if err != nil {
			return nil, &PatternError{Option: "label name", Pattern: cfg.LabelNamePattern, Err: err}
		}
	}

	allow := make(map[string]bool, len(cfg.CategoryFilter))
	for _, c := range cfg.CategoryFilter {
		allow[c] = true
	}

	return &Classifier{
		categories: categorySet{allow: allow},
		labels:     regexLabels{layer: layerRe, name: nameRe},
		devices:    prefixDevices{prefixes: cfg.DevicePrefixes},
	}, nil
}

// NewWithMatchers builds a Classifier from explicit matcher implementations,
// for callers substituting their own policy pieces.
func NewWithMatchers(c CategoryMatcher, l LabelMatcher, d DeviceMatcher) *Classifier {
	return &Classifier{categories: c, labels: l, devices: d}
}

// Classify returns the classification of a single entity.
func (c *Classifier) Classify(e *entity.Entity) Classification {
	if !c.categories.Allowed(e) {
		return Ignored
	}
	if c.labels.IsLabel(e) {
		return Label
	}
	if c.devices.IsDevice(e) {
		return Device
	}
	return Ignored
}

// Partition is the id-ordered outcome of classifying a full entity set.
// Others collects allowed entities that are neither device nor label; they
// remain eligible for the secondary association link.
type Partition struct {
	Devices      []*entity.Entity
	Labels       []*entity.Entity
	Others       []*entity.Entity
	IgnoredCount int
}

// Partition classifies every entity, preserving the input order within each
// bucket. Entities failing the category filter count as ignored and do not
// join Others.
func (c *Classifier) Partition(entities []*entity.Entity) Partition {
	var p Partition
	for _, e := range entities {
		if !c.categories.Allowed(e) {
			p.IgnoredCount++
			continue
		}
		if c.labels.IsLabel(e) {
			p.Labels = append(p.Labels, e)
			continue
		}
		if c.devices.IsDevice(e) {
			p.Devices = append(p.Devices, e)
			continue
		}
		p.Others = append(p.Others, e)
		p.IgnoredCount++
	}
	return p
}

// categorySet allows entities whose category is in the set; an empty set
// allows everything.
type categorySet struct {
	allow map[string]bool
}

func (m categorySet) Allowed(e *entity.Entity) bool {
	if len(m.allow) == 0 {
		return true
	}
	return m.allow[e.Category]
}

// regexLabels marks labels by layer or name pattern; either suffices.
type regexLabels struct {
	layer *regexp.Regexp
	name  *regexp.Regexp
}

func (m regexLabels) IsLabel(e *entity.Entity) bool {
	if m.layer != nil && m.layer.MatchString(e.Layer) {
		return true
	}
	if m.name != nil && m.name.MatchString(e.Name) {
		return true
	}
	return false
}

// prefixDevices marks devices by literal name prefix.
type prefixDevices struct {
	prefixes []string
}

func (m prefixDevices) IsDevice(e *entity.Entity) bool {
	for _, p := range m.prefixes {
		if p != "" && strings.HasPrefix(e.Name, p) {
			return true
		}
	}
	return false
}
