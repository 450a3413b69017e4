package codec

import (
	"bytes"
	"strconv"
)

// Encode serializes f into its byte-exact wire form.
func Encode(f Frame) []byte {
	var buf bytes.Buffer
	encodeTo(&buf, f)
	return buf.Bytes()
}

// EncodeTo appends the wire form of f to buf, avoiding an intermediate
// allocation when the caller already owns a growable buffer (the
// Connection's write path does this once per response frame).
func EncodeTo(buf *bytes.Buffer, f Frame) {
	encodeTo(buf, f)
}

func encodeTo(buf *bytes.Buffer, f Frame) {
	switch f.Kind {
	case KindSimple:
		buf.WriteByte(byte(KindSimple))
		buf.WriteString(f.Str)
		buf.WriteString("\r\n")

	case KindError:
		buf.WriteByte(byte(KindError))
		buf.WriteString(f.Str)
		buf.WriteString("\r\n")

	case KindInt:
		buf.WriteByte(byte(KindInt))
		buf.WriteString(strconv.FormatInt(f.Int, 10))
		buf.WriteString("\r\n")

	case KindBulk:
		buf.WriteByte(byte(KindBulk))
		if f.IsNullBulk {
			buf.WriteString("-1\r\n")
			return
		}
		buf.WriteString(strconv.Itoa(len(f.Bulk)))
		buf.WriteString("\r\n")
		buf.Write(f.Bulk)
		buf.WriteString("\r\n")

	case KindArray:
		buf.WriteByte(byte(KindArray))
		if f.IsNullArray {
			buf.WriteString("-1\r\n")
			return
		}
		buf.WriteString(strconv.Itoa(len(f.Array)))
		buf.WriteString("\r\n")
		for _, child := range f.Array {
			encodeTo(buf, child)
		}

	default: // KindNull (zero value)
		buf.WriteString("$-1\r\n")
	}
}
