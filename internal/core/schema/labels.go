package schema

import "strconv"

// Label resolves a class id against a name table. Models ship their class
// names either as a dense list or a sparse id-keyed map, so both shapes are
// accepted; anything else falls back to the stringified id.
func Label(names any, id int) string {
	switch t := names.(type) {
	case []string:
		if id >= 0 && id < len(t) {
			return t[id]
		}
	case map[int]string:
		if s, ok := t[id]; ok {
			return s
		}
	}
	return strconv.Itoa(id)
}
