// Package ipr implements the Internal Path Representation: a canonical,
// UTF-8, slash-separated relative path used as the identity of every entry
// in an Ark.
package ipr

import "strings"

// IPR is a canonicalized relative path. Canonical form obeys:
//
//   - valid UTF-8 (guaranteed by Go strings already being arbitrary byte
//     sequences interpreted as UTF-8; we don't additionally validate here,
//     matching the upstream policy that non-Unicode filesystem paths are a
//     fsbridge-level error, not an IPR-level one)
//   - '/' separated
//   - no leading or trailing '/'
//   - no '.' or '..' segments
//   - no consecutive '/' characters
//
// The zero value is the empty IPR, which is already canonical.
type IPR string

// New canonicalizes an arbitrary string into an IPR.
func New(s string) IPR {
	return IPR(Canonize(s))
}

// String returns the underlying canonical path text.
func (p IPR) String() string {
	return string(p)
}

// Less orders IPRs lexicographically on their canonical form.
func (p IPR) Less(other IPR) bool {
	return p < other
}

// state is the well-formedness scanner's parse state.
type state int

const (
	stateStart state = iota
	stateAfterSlash
	stateOneDot
	stateTwoDots
	stateOtherChar
)

// IsWellFormed reports whether src is already in canonical IPR form,
// without allocating. This is a hot path: Canonize calls it first and
// returns the original string unchanged (by value — Go strings are
// immutable, so no copy is needed either way) whenever this is true.
//
// The single-pass state machine below must accept exactly the same
// language as force-canonizing and comparing for equality would, for
// every input. In particular "..." and "...." are well-formed ordinary
// path segments (only "." and ".." are special), and a lone "/" or a
// leading/trailing/doubled "/" is never well-formed.
func IsWellFormed(src string) bool {
	st := stateStart
	for _, c := range src {
		switch st {
		case stateStart:
			switch c {
			case '/':
				return false // no leading slash
			case '.':
				st = stateOneDot
			default:
				st = stateOtherChar
			}
		case stateAfterSlash:
			switch c {
			case '/':
				return false // "//"
			case '.':
				st = stateOneDot
			default:
				st = stateOtherChar
			}
		case stateOneDot:
			switch c {
			case '/':
				return false // "./"
			case '.':
				st = stateTwoDots
			default:
				st = stateOtherChar
			}
		case stateTwoDots:
			switch c {
			case '/':
				return false // "../"
			default:
				st = stateOtherChar // "..." onward is an ordinary segment
			}
		case stateOtherChar:
			switch c {
			case '/':
				st = stateAfterSlash
			default:
				st = stateOtherChar
			}
		}
	}

	switch st {
	case stateStart, stateOtherChar:
		return true
	default:
		// Trailing slash, or the whole string was "." or "..".
		return false
	}
}

// Canonize produces the canonical form of src, borrowing (returning src
// unchanged) whenever it is already well-formed.
func Canonize(src string) string {
	if IsWellFormed(src) {
		return src
	}
	return ForceCanonize(src)
}

// ForceCanonize always rebuilds the path from scratch: split on '/',
// drop empty/'.'/'..' segments, rejoin with '/'. Used by Canonize's slow
// path, which the untrusted-deserialization path in package archive
// reaches through New for every loaded path.
func ForceCanonize(src string) string {
	parts := strings.Split(src, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/")
}
