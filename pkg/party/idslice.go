package party

import (
	"encoding/binary"
	"io"
	"slices"
)

// IDSlice is a set of parties. Apart from NewIDSlice, methods expect it sorted.
type IDSlice []ID

// NewIDSlice returns a sorted copy of ids.
func NewIDSlice(ids []ID) IDSlice {
	sorted := IDSlice(ids).Copy()
	slices.Sort(sorted)
	return sorted
}

// Indices returns 1, …, n.
func Indices(n int) IDSlice {
	ids := make(IDSlice, n)
	for i := range ids {
		ids[i] = ID(i + 1)
	}
	return ids
}

// Valid returns true if ids is strictly increasing and does not contain 0.
func (ids IDSlice) Valid() bool {
	var prev ID
	for _, id := range ids {
		if id <= prev {
			return false
		}
		prev = id
	}
	return true
}

// Contains returns true if every one of others is in ids.
func (ids IDSlice) Contains(others ...ID) bool {
	for _, id := range others {
		if ids.GetIndex(id) < 0 {
			return false
		}
	}
	return true
}

// GetIndex returns the position of id, or -1.
func (ids IDSlice) GetIndex(id ID) int {
	if i, found := slices.BinarySearch(ids, id); found {
		return i
	}
	return -1
}

func (ids IDSlice) Copy() IDSlice {
	return slices.Clone(ids)
}

// Remove returns a copy of ids without id.
func (ids IDSlice) Remove(id ID) IDSlice {
	return slices.DeleteFunc(ids.Copy(), func(other ID) bool { return other == id })
}

// WriteTo writes the number of parties as a uint32 followed by each ID.
func (ids IDSlice) WriteTo(w io.Writer) (int64, error) {
	buf := binary.BigEndian.AppendUint32(make([]byte, 0, 4+ByteSize*len(ids)), uint32(len(ids)))
	for _, id := range ids {
		buf = binary.BigEndian.AppendUint16(buf, uint16(id))
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (IDSlice) Domain() string { return "IDSlice" }
