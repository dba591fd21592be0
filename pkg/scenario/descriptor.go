package scenario

import "strings"

// JavaType is one parameter or return type decoded from a JVM descriptor.
type JavaType struct {
	Name      string `json:"name"`      // Java source notation, e.g. java.lang.String, int[]
	Reference bool   `json:"reference"` // object or array type, i.e. nullable
}

var primitiveNames = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// ParseDescriptor decodes a JVM method descriptor such as
// "(Ljava/lang/String;I[J)V" into parameter types and a return type.
// ok is false when the descriptor is absent or unparsable; callers treat
// that as a method with no known parameters rather than an error.
func ParseDescriptor(desc string) (params []JavaType, ret JavaType, ok bool) {
	if len(desc) < 3 || desc[0] != '(' {
		return nil, JavaType{}, false
	}
	end := strings.IndexByte(desc, ')')
	if end < 0 || end == len(desc)-1 {
		return nil, JavaType{}, false
	}

	rest := desc[1:end]
	for len(rest) > 0 {
		t, n := nextType(rest)
		if n == 0 {
			return nil, JavaType{}, false
		}
		params = append(params, t)
		rest = rest[n:]
	}

	ret, n := nextType(desc[end+1:])
	if n != len(desc)-end-1 {
		return nil, JavaType{}, false
	}
	return params, ret, true
}

// nextType decodes the leading type of a descriptor fragment, returning
// the type and the number of bytes consumed (0 on failure).
func nextType(s string) (JavaType, int) {
	dims := 0
	i := 0
	for i < len(s) && s[i] == '[' {
		dims++
		i++
	}
	if i >= len(s) {
		return JavaType{}, 0
	}

	var name string
	var consumed int
	switch c := s[i]; {
	case c == 'L':
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 {
			return JavaType{}, 0
		}
		name = strings.ReplaceAll(s[i+1:i+semi], "/", ".")
		consumed = i + semi + 1
	default:
		prim, found := primitiveNames[c]
		if !found {
			return JavaType{}, 0
		}
		name = prim
		consumed = i + 1
	}

	name += strings.Repeat("[]", dims)
	return JavaType{Name: name, Reference: dims > 0 || s[i] == 'L'}, consumed
}
