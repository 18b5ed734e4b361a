package form

import (
	"net/url"
	"strings"
)

// Pair is a single form field. Order matters to callers: provider
// signatures are computed over fields in body order, so parsed pairs
// keep their original position instead of collapsing into a map.
type Pair struct {
	Key   string
	Value string
}

// unreserved reports whether b passes through percent-encoding
// untouched. The set matches what the providers expect from
// form-posted values (letters, digits, and -_.!~*'()).
func unreserved(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

const upperHex = "0123456789ABCDEF"

// EncodeValue percent-escapes value with uppercase hex digits and
// encodes spaces as "+". Payfast signs the uppercase-hex form, so the
// casing here is part of the wire contract, not a style choice.
func EncodeValue(value string) string {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == ' ':
			b.WriteByte('+')
		case unreserved(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
		}
	}
	return b.String()
}

// DecodeComponent reverses EncodeValue: "+" becomes a space before
// percent-decoding.
func DecodeComponent(value string) (string, error) {
	return url.QueryUnescape(value)
}

// Encode renders pairs as an application/x-www-form-urlencoded body,
// preserving insertion order.
func Encode(pairs []Pair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(EncodeValue(p.Key))
		b.WriteByte('=')
		b.WriteString(EncodeValue(p.Value))
	}
	return b.String()
}

// Decode parses a raw form body into ordered pairs. An empty body
// yields no pairs. A segment without "=" decodes as a key with an
// empty value.
func Decode(raw string) ([]Pair, error) {
	if raw == "" {
		return nil, nil
	}

	var pairs []Pair
	for _, segment := range strings.Split(raw, "&") {
		if segment == "" {
			continue
		}

		key := segment
		value := ""
		if idx := strings.IndexByte(segment, '='); idx >= 0 {
			key = segment[:idx]
			value = segment[idx+1:]
		}

		decodedKey, err := DecodeComponent(key)
		if err != nil {
			return nil, err
		}
		decodedValue, err := DecodeComponent(value)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: decodedKey, Value: decodedValue})
	}
	return pairs, nil
}

// ToMap flattens pairs into a lookup map. Later duplicates win.
func ToMap(pairs []Pair) map[string]string {
	record := make(map[string]string, len(pairs))
	for _, p := range pairs {
		record[p.Key] = p.Value
	}
	return record
}
