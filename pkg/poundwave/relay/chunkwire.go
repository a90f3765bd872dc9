package relay

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// readChunkSizeLine reads a "chunk-size [;ext] CRLF" line, returning the
// decoded size and the raw extension text (including the leading ';', if
// any) so the caller can re-emit the line unchanged onto the outbound side.
func readChunkSizeLine(br *bufio.Reader) (uint64, string, error) {
	line, err := br.ReadSlice('\n')
	if err != nil {
		if err == io.EOF {
			return 0, "", io.ErrUnexpectedEOF
		}
		return 0, "", err
	}
	if len(line) < 2 || line[len(line)-1] != '\n' || line[len(line)-2] != '\r' {
		return 0, "", ErrChunkedEncoding
	}
	line = line[:len(line)-2]

	sizeField := line
	ext := ""
	if idx := bytes.IndexByte(line, ';'); idx >= 0 {
		sizeField = line[:idx]
		ext = string(line[idx:])
	}
	sizeField = bytes.TrimSpace(sizeField)
	if len(sizeField) == 0 {
		return 0, "", ErrChunkedEncoding
	}

	var size uint64
	for _, b := range sizeField {
		size <<= 4
		switch {
		case b >= '0' && b <= '9':
			size |= uint64(b - '0')
		case b >= 'a' && b <= 'f':
			size |= uint64(b - 'a' + 10)
		case b >= 'A' && b <= 'F':
			size |= uint64(b - 'A' + 10)
		default:
			return 0, "", ErrChunkedEncoding
		}
	}
	return size, ext, nil
}

func formatChunkHeader(size uint64, ext string) string {
	return fmt.Sprintf("%x%s\r\n", size, ext)
}

func expectCRLF(br *bufio.Reader) error {
	var b [2]byte
	if _, err := io.ReadFull(br, b[:]); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if b[0] != '\r' || b[1] != '\n' {
		return ErrChunkedEncoding
	}
	return nil
}
