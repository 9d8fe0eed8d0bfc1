// Package encodable implements the small TYPE:VALUE grammar used to
// turn human-typed literals (on the command line, or in a future rule
// file) into binary encodings: sized integers in either byte order,
// strings in a chosen text encoding, raw hex, base64, dotted-quad IP
// addresses in three representations, and floats.
package encodable

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"net"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// EncodingError is returned for any value that cannot be represented in
// its requested type (out-of-range integer, malformed hex, etc).
type EncodingError struct {
	Msg string
}

func (e *EncodingError) Error() string { return "encodable: " + e.Msg }

func errf(format string, args ...any) error {
	return &EncodingError{Msg: fmt.Sprintf(format, args...)}
}

var (
	intPattern   = regexp.MustCompile(`^(?P<sign>[us])int(?P<len>\d+)(-(?P<endian>[bl?])e)?$`)
	strPattern   = regexp.MustCompile(`^str(-(?P<encoding>[-a-zA-Z0-9*]+))?$`)
	floatPattern = regexp.MustCompile(`^float(?P<length>\d+)?(-(?P<endian>[bl])e)?$`)
	hexPattern   = regexp.MustCompile(`^hex$`)
	b64Pattern   = regexp.MustCompile(`^b(ase)?64$`)
	ipPattern    = regexp.MustCompile(`^ip$`)
)

// Encode parses "TYPE:VALUE" and returns the encoded bytes.
func Encode(typeValue string) ([]byte, error) {
	typ, value, ok := strings.Cut(typeValue, ":")
	if !ok {
		return nil, errf("missing ':' separator in %q", typeValue)
	}
	return EncodeTyped(value, typ)
}

// EncodeTyped encodes value according to the named type.
func EncodeTyped(value, typ string) ([]byte, error) {
	if m := intPattern.FindStringSubmatch(typ); m != nil {
		return encodeInt(value, m)
	}
	if m := strPattern.FindStringSubmatch(typ); m != nil {
		return encodeStr(value, m)
	}
	if m := floatPattern.FindStringSubmatch(typ); m != nil {
		return encodeFloat(value, m)
	}
	if hexPattern.MatchString(typ) {
		return encodeHex(value)
	}
	if b64Pattern.MatchString(typ) {
		return encodeBase64(value)
	}
	if ipPattern.MatchString(typ) {
		return nil, errf("type %q is ambiguous: use ipv4-str, ipv4-be, or ipv4-le", typ)
	}
	if strings.HasPrefix(typ, "ipv4-") {
		return encodeIP(value, strings.TrimPrefix(typ, "ipv4-"))
	}
	return nil, errf("unrecognized type %q", typ)
}

func subexp(re *regexp.Regexp, m []string, name string) string {
	for i, n := range re.SubexpNames() {
		if n == name && i < len(m) {
			return m[i]
		}
	}
	return ""
}

func decodeInt(value string) (int64, error) {
	neg := false
	s := value
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var base int
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O"):
		base, s = 8, s[2:]
	default:
		base = 10
	}
	n, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, errf("cannot parse integer %q: %v", value, err)
	}
	v := int64(n)
	if neg {
		v = -v
	}
	return v, nil
}

func encodeInt(value string, m []string) ([]byte, error) {
	sign := subexp(intPattern, m, "sign")
	lenStr := subexp(intPattern, m, "len")
	endian := subexp(intPattern, m, "endian")

	bits, err := strconv.Atoi(lenStr)
	if err != nil || bits <= 0 || bits%8 != 0 {
		return nil, errf("invalid integer width %q", lenStr)
	}
	nbytes := bits / 8

	n, err := decodeInt(value)
	if err != nil {
		return nil, err
	}

	var buf []byte
	switch sign {
	case "u":
		if n < 0 {
			return nil, errf("value %q is negative for unsigned type", value)
		}
		buf, err = encodeUint(uint64(n), nbytes)
	case "s":
		buf, err = encodeSint(n, nbytes)
	default:
		return nil, errf("unknown sign %q", sign)
	}
	if err != nil {
		return nil, err
	}

	be := append([]byte{}, buf...)
	reverse(be)
	le := buf

	switch endian {
	case "b":
		return be, nil
	case "l", "":
		return le, nil
	case "?":
		return le, nil // caller wanting both variants should call EncodeTyped twice, once per explicit endian
	default:
		return nil, errf("unknown endianness %q", endian)
	}
}

// encodeUint returns the little-endian nbytes representation of v,
// after checking it fits.
func encodeUint(v uint64, nbytes int) ([]byte, error) {
	if nbytes < 8 {
		max := uint64(1)<<(uint(nbytes)*8) - 1
		if v > max {
			return nil, errf("value %d overflows uint%d", v, nbytes*8)
		}
	}
	buf := make([]byte, nbytes)
	for i := 0; i < nbytes; i++ {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf, nil
}

// encodeSint returns the little-endian nbytes two's-complement
// representation of v.
func encodeSint(v int64, nbytes int) ([]byte, error) {
	bits := uint(nbytes) * 8
	var lo, hi int64
	if nbytes < 8 {
		hi = int64(1)<<(bits-1) - 1
		lo = -(int64(1) << (bits - 1))
	} else {
		hi = math.MaxInt64
		lo = math.MinInt64
	}
	if v < lo || v > hi {
		return nil, errf("value %d overflows sint%d", v, bits)
	}
	uv := uint64(v)
	buf := make([]byte, nbytes)
	for i := 0; i < nbytes; i++ {
		buf[i] = byte(uv)
		uv >>= 8
	}
	return buf, nil
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func encodeStr(value string, m []string) ([]byte, error) {
	enc := subexp(strPattern, m, "encoding")
	switch enc {
	case "", "utf-8", "utf8":
		return []byte(value), nil
	case "lat1", "latin1":
		return encodeLatin1(value)
	case "u16-be", "utf-16-be", "utf16-be":
		return encodeUTF16(value, unicode.BigEndian)
	case "u16-le", "utf-16-le", "utf16-le":
		return encodeUTF16(value, unicode.LittleEndian)
	case "*":
		return nil, errf("encoding \"*\" expands to multiple variants; call with an explicit encoding")
	default:
		return nil, errf("unknown string encoding %q", enc)
	}
}

func encodeLatin1(value string) ([]byte, error) {
	out := make([]byte, 0, len(value))
	for _, r := range value {
		if r > 0xff {
			return nil, errf("rune %q is not representable in latin1", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

func encodeUTF16(value string, order unicode.Endianness) ([]byte, error) {
	enc := unicode.UTF16(order, unicode.IgnoreBOM).NewEncoder()
	out, err := encoding.ReplaceUnsupported(enc).String(value)
	if err != nil {
		return nil, errf("utf-16 encode: %v", err)
	}
	return []byte(out), nil
}

func encodeFloat(value string, m []string) ([]byte, error) {
	lengthStr := subexp(floatPattern, m, "length")
	endian := subexp(floatPattern, m, "endian")
	if lengthStr == "" {
		lengthStr = "64"
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, errf("cannot parse float %q: %v", value, err)
	}

	var buf []byte
	switch lengthStr {
	case "32":
		buf = make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f)))
	case "64":
		buf = make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
	default:
		return nil, errf("unsupported float width %q", lengthStr)
	}

	if endian == "b" {
		reverse(buf)
	}
	return buf, nil
}

func encodeHex(value string) ([]byte, error) {
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, errf("malformed hex %q: %v", value, err)
	}
	return b, nil
}

func encodeBase64(value string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, errf("malformed base64 %q: %v", value, err)
	}
	return b, nil
}

func encodeIP(value, variant string) ([]byte, error) {
	ip := net.ParseIP(value).To4()
	if ip == nil {
		return nil, errf("not a valid IPv4 address: %q", value)
	}
	switch variant {
	case "str":
		return []byte(value), nil
	case "be":
		return []byte(ip), nil
	case "le":
		out := append([]byte{}, ip...)
		reverse(out)
		return out, nil
	default:
		return nil, errf("unknown ip variant %q", variant)
	}
}
