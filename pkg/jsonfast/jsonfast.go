/*
Package jsonfast offers a minimal JSON builder for the agent's fixed outbound schemas.
*/
package jsonfast

// Builder is a minimal JSON builder that appends to a single byte slice.
// Objects may be nested; each level tracks whether a separator is needed.
// Not a fully general-purpose JSON writer; tailored for known field sets.
type Builder struct {
	buf   []byte
	first []bool
}

// New creates a new builder with initial capacity.
func New(capacity int) *Builder {
	if capacity <= 0 {
		capacity = 128
	}
	return &Builder{
		buf:   make([]byte, 0, capacity),
		first: make([]bool, 0, 4),
	}
}

// Bytes returns the underlying buffer (do not modify after use).
func (b *Builder) Bytes() []byte {
	return b.buf
}

// BeginObject starts a JSON object.
func (b *Builder) BeginObject() {
	b.buf = append(b.buf, '{')
	b.first = append(b.first, true)
}

// EndObject ends the innermost open JSON object.
func (b *Builder) EndObject() {
	if len(b.first) == 0 {
		return
	}
	b.buf = append(b.buf, '}')
	b.first = b.first[:len(b.first)-1]
}

// BeginObjectField opens a nested "name":{ object. Close it with EndObject.
func (b *Builder) BeginObjectField(name string) {
	b.key(name)
	b.BeginObject()
}

// AddStringField adds a "name":"value" string field with escaping.
func (b *Builder) AddStringField(name, value string) {
	b.key(name)
	b.buf = append(b.buf, '"')
	b.escapeString(value)
	b.buf = append(b.buf, '"')
}

// AddIntField adds a "name":int field.
func (b *Builder) AddIntField(name string, v int) {
	b.key(name)
	b.buf = append(b.buf, itoa(v)...)
}

// key writes the separator and quoted field name. A field written with no
// open object implicitly opens one.
func (b *Builder) key(name string) {
	b.sep()
	b.buf = append(b.buf, '"')
	b.escapeString(name)
	b.buf = append(b.buf, '"', ':')
}

func (b *Builder) sep() {
	if len(b.first) == 0 {
		b.BeginObject()
	}
	top := len(b.first) - 1
	if b.first[top] {
		b.first[top] = false
		return
	}
	b.buf = append(b.buf, ',')
}

// escapeString escapes JSON special characters.
func (b *Builder) escapeString(s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"':
			b.buf = append(b.buf, '\\', c)
		case '\b':
			b.buf = append(b.buf, '\\', 'b')
		case '\f':
			b.buf = append(b.buf, '\\', 'f')
		case '\n':
			b.buf = append(b.buf, '\\', 'n')
		case '\r':
			b.buf = append(b.buf, '\\', 'r')
		case '\t':
			b.buf = append(b.buf, '\\', 't')
		default:
			if c < 0x20 {
				b.buf = append(b.buf, '\\', 'u', '0', '0', hex[c>>4], hex[c&0x0f])
			} else {
				b.buf = append(b.buf, c)
			}
		}
	}
}

// itoa converts an int to ascii without going through strconv.
func itoa(x int) []byte {
	if x == 0 {
		return []byte{'0'}
	}
	var tmp [20]byte
	i := len(tmp)
	neg := x < 0
	u := uint64(x)
	if neg {
		u = uint64(-x)
	}
	for u > 0 {
		i--
		tmp[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		tmp[i] = '-'
	}
	return tmp[i:]
}

var hex = "0123456789abcdef"
