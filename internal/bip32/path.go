package bip32

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Path is a sequence of non-hardened child indices, starting from the master key.
type Path []uint32

// ParsePath parses a path of the form "m/44/0/0/0".
// The leading "m" is optional, and "m" alone is the empty path.
// Hardened markers (' or h) and indices ≥ 2³¹ are rejected.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "m")
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return Path{}, nil
	}

	parts := strings.Split(s, "/")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, errors.New("bip32: empty path component")
		}
		if strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h") || strings.HasSuffix(part, "H") {
			return nil, fmt.Errorf("%w: %q", ErrHardenedIndex, part)
		}
		index, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bip32: invalid path component %q: %w", part, err)
		}
		if uint32(index) >= HardenedKeyStart {
			return nil, fmt.Errorf("%w: %d", ErrHardenedIndex, index)
		}
		path = append(path, uint32(index))
	}
	return path, nil
}

// String returns the path in "m/a/b/c" notation.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, index := range p {
		b.WriteByte('/')
		b.WriteString(strconv.FormatUint(uint64(index), 10))
	}
	return b.String()
}
