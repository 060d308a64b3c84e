package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

const sessionFormatVersionCurrent = 1

// ErrInvalidEncoding is returned by Decode for malformed input.
var ErrInvalidEncoding = errors.New("invalid session encoding")

// Encode serializes s into the current binary format.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}

	var buf bytes.Buffer
	buf.WriteByte(sessionFormatVersionCurrent)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"id", s.ID},
		{"subject", s.User.Subject},
		{"email", s.User.Email},
		{"tokenType", s.TokenType},
	} {
		if err := writeShort(&buf, field.name, field.value); err != nil {
			return nil, err
		}
	}

	if err := writeLong(&buf, "accessToken", s.AccessToken); err != nil {
		return nil, err
	}
	if err := writeLong(&buf, "refreshToken", s.RefreshToken); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.BigEndian, s.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	if len(s.User.Metadata) > math.MaxUint8 {
		return nil, errors.New("metadata has too many entries")
	}
	buf.WriteByte(byte(len(s.User.Metadata)))

	// sorted so equal sessions encode to equal bytes
	keys := make([]string, 0, len(s.User.Metadata))
	for k := range s.User.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeShort(&buf, "metadata key", k); err != nil {
			return nil, err
		}
		if err := writeLong(&buf, "metadata value", s.User.Metadata[k]); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode parses data produced by Encode.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	if version != sessionFormatVersionCurrent {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidEncoding, version)
	}

	s := &Session{}
	for _, dst := range []*string{&s.ID, &s.User.Subject, &s.User.Email, &s.TokenType} {
		if *dst, err = readShort(reader); err != nil {
			return nil, err
		}
	}
	if s.AccessToken, err = readLong(reader); err != nil {
		return nil, err
	}
	if s.RefreshToken, err = readLong(reader); err != nil {
		return nil, err
	}

	if err := binary.Read(reader, binary.BigEndian, &s.IssuedAt); err != nil {
		return nil, ErrInvalidEncoding
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, ErrInvalidEncoding
	}

	count, err := reader.ReadByte()
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	if count > 0 {
		s.User.Metadata = make(map[string]string, count)
		for i := 0; i < int(count); i++ {
			k, err := readShort(reader)
			if err != nil {
				return nil, err
			}
			v, err := readLong(reader)
			if err != nil {
				return nil, err
			}
			s.User.Metadata[k] = v
		}
	}

	if reader.Len() != 0 {
		return nil, ErrInvalidEncoding
	}

	return s, nil
}

func writeShort(buf *bytes.Buffer, name, value string) error {
	if len(value) > math.MaxUint8 {
		return errors.New(name + " too long")
	}
	buf.WriteByte(byte(len(value)))
	buf.WriteString(value)
	return nil
}

func writeLong(buf *bytes.Buffer, name, value string) error {
	if len(value) > math.MaxUint16 {
		return errors.New(name + " too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(value))); err != nil {
		return err
	}
	buf.WriteString(value)
	return nil
}

func readShort(reader *bytes.Reader) (string, error) {
	n, err := reader.ReadByte()
	if err != nil {
		return "", ErrInvalidEncoding
	}
	return readN(reader, int(n))
}

func readLong(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", ErrInvalidEncoding
	}
	return readN(reader, int(n))
}

func readN(reader *bytes.Reader, n int) (string, error) {
	if n == 0 {
		return "", nil
	}
	if n > reader.Len() {
		return "", ErrInvalidEncoding
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(reader, b); err != nil {
		return "", ErrInvalidEncoding
	}
	return string(b), nil
}
