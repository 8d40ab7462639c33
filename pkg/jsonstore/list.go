package jsonstore

import "strings"

// listPrefix derives a directory listing from an index by prefix matching.
//
// A non-empty path gets a trailing '/' before matching, and matches are
// returned with that prefix stripped. Nested entries are returned whole
// ("bar/test.json" under "foo"); there is no truncation at the next '/'.
// At the root every entry is returned verbatim except those starting with
// '/'. The result follows index order and is never nil.
func listPrefix(ix Index, path string) []string {
	prefix := path
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	ret := make([]string, 0)
	for _, entry := range ix {
		switch {
		case path == "":
			if !strings.HasPrefix(entry, "/") {
				ret = append(ret, entry)
			}
		case strings.HasPrefix(entry, prefix):
			ret = append(ret, entry[len(prefix):])
		}
	}
	return ret
}
