package domain

import (
	"sort"
	"strconv"
)

// Fingerprint identifies leaf content. Two leaves are the same content iff their fingerprints are equal.
type Fingerprint uint64

func (f Fingerprint) String() string {
	return strconv.FormatUint(uint64(f), 16)
}

// MarshalText encodes the fingerprint as hex so it survives JSON consumers without 64-bit integers.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fingerprint) UnmarshalText(text []byte) error {
	v, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseFingerprint parses the hexadecimal form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, err
	}
	return Fingerprint(v), nil
}

// FingerprintSet is an unordered set of fingerprints.
type FingerprintSet map[Fingerprint]struct{}

// NewFingerprintSet builds a set from the given fingerprints, collapsing duplicates.
func NewFingerprintSet(fps ...Fingerprint) FingerprintSet {
	s := make(FingerprintSet, len(fps))
	for _, fp := range fps {
		s[fp] = struct{}{}
	}
	return s
}

func (s FingerprintSet) Has(fp Fingerprint) bool {
	_, ok := s[fp]
	return ok
}

func (s FingerprintSet) Add(fp Fingerprint) {
	s[fp] = struct{}{}
}

func (s FingerprintSet) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set.
func (s FingerprintSet) Clone() FingerprintSet {
	out := make(FingerprintSet, len(s))
	for fp := range s {
		out[fp] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order, for stable output.
func (s FingerprintSet) Sorted() []Fingerprint {
	out := make([]Fingerprint, 0, len(s))
	for fp := range s {
		out = append(out, fp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
