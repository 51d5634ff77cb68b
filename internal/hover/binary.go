package hover

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// This file contains the binary encoding of hover indices, implementing
// encoding.BinaryMarshaler/BinaryUnmarshaler so an Index can round-trip
// through rezi.EncBinary/DecBinary on its way into the daemon's cache.

func encBinaryString(s string) []byte {
	enc := make([]byte, 0, len(s)+8)

	chCount := 0
	for _, ch := range s {
		chBuf := make([]byte, utf8.UTFMax)
		byteLen := utf8.EncodeRune(chBuf, ch)
		enc = append(enc, chBuf[:byteLen]...)
		chCount++
	}

	return append(encBinaryInt(chCount), enc...)
}

func encBinaryInt(i int) []byte {
	enc := make([]byte, 8)
	binary.PutVarint(enc, int64(i))
	return enc
}

// decBinaryString returns the string followed by the bytes consumed.
func decBinaryString(data []byte) (string, int, error) {
	runeCount, n, err := decBinaryInt(data)
	if err != nil {
		return "", 0, fmt.Errorf("decoding string rune count: %w", err)
	}
	data = data[n:]
	if runeCount < 0 {
		return "", 0, fmt.Errorf("string rune count < 0")
	}

	readBytes := n
	var sb strings.Builder
	for i := 0; i < runeCount; i++ {
		ch, bytesRead := utf8.DecodeRune(data)
		if ch == utf8.RuneError {
			return "", 0, fmt.Errorf("invalid or truncated UTF-8 in string")
		}
		sb.WriteRune(ch)
		readBytes += bytesRead
		data = data[bytesRead:]
	}
	return sb.String(), readBytes, nil
}

// decBinaryInt always consumes 8 bytes.
func decBinaryInt(data []byte) (int, int, error) {
	if len(data) < 8 {
		return 0, 0, fmt.Errorf("data does not contain 8 bytes")
	}
	val, read := binary.Varint(data[:8])
	if read <= 0 {
		return 0, 0, fmt.Errorf("malformed varint")
	}
	return int(val), 8, nil
}

// MarshalBinary encodes e as its four strings in declaration order.
func (e Entry) MarshalBinary() ([]byte, error) {
	var data []byte
	data = append(data, encBinaryString(e.DisplayName)...)
	data = append(data, encBinaryString(string(e.Kind))...)
	data = append(data, encBinaryString(e.Signature)...)
	data = append(data, encBinaryString(e.Docstring)...)
	return data, nil
}

// UnmarshalBinary decodes what MarshalBinary produced. It returns an error
// on truncated data and ignores any trailing bytes, matching the
// length-prefixed framing DecBinary hands it.
func (e *Entry) UnmarshalBinary(data []byte) error {
	fields := []*string{&e.DisplayName, nil, &e.Signature, &e.Docstring}
	var kind string
	fields[1] = &kind

	for _, f := range fields {
		s, n, err := decBinaryString(data)
		if err != nil {
			return err
		}
		*f = s
		data = data[n:]
	}
	e.Kind = Kind(kind)
	return nil
}

// MarshalBinary encodes the index as a count followed by key/entry pairs in
// sorted key order, so identical indices always encode to identical bytes.
func (i Index) MarshalBinary() ([]byte, error) {
	keys := make([]string, 0, len(i))
	for k := range i {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := encBinaryInt(len(keys))
	for _, k := range keys {
		data = append(data, encBinaryString(k)...)
		entryData, err := i[k].MarshalBinary()
		if err != nil {
			return nil, err
		}
		data = append(data, encBinaryInt(len(entryData))...)
		data = append(data, entryData...)
	}
	return data, nil
}

// UnmarshalBinary decodes what MarshalBinary produced into i. If *i is nil a
// new map is allocated; otherwise decoded entries are added to it.
func (i *Index) UnmarshalBinary(data []byte) error {
	if *i == nil {
		*i = Index{}
	}
	count, n, err := decBinaryInt(data)
	if err != nil {
		return fmt.Errorf("decoding entry count: %w", err)
	}
	data = data[n:]

	for k := 0; k < count; k++ {
		key, n, err := decBinaryString(data)
		if err != nil {
			return fmt.Errorf("decoding entry key: %w", err)
		}
		data = data[n:]

		byteLen, n, err := decBinaryInt(data)
		if err != nil {
			return fmt.Errorf("decoding entry length: %w", err)
		}
		data = data[n:]
		if byteLen < 0 || len(data) < byteLen {
			return fmt.Errorf("truncated entry for key %q", key)
		}

		var e Entry
		if err := e.UnmarshalBinary(data[:byteLen]); err != nil {
			return fmt.Errorf("decoding entry for key %q: %w", key, err)
		}
		data = data[byteLen:]
		(*i)[key] = e
	}
	return nil
}
