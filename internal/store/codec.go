package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/remixer1943/Ai/internal/models"
)

// Serialized layout (all integers little-endian):
//
//	magic "KBVS" | version u16 | compression u8 | body
//
// body (zstd stream when compression is zstd):
//
//	buildID str | model str | createdAt i64 (unix nanos) | n u32 | d u32
//	n x (id str | text str | source str)
//	n*d x f32
//
// str is u32 length followed by UTF-8 bytes.
const (
	formatVersion uint16 = 1
	maxStringLen         = 64 << 20
	maxDimensions        = 1 << 16
)

var magic = [4]byte{'K', 'B', 'V', 'S'}

// ErrMalformed is returned by Decode for input that is not a valid serialized store.
var ErrMalformed = errors.New("malformed vector store")

// Compression selects how the store body is compressed on disk.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZstd Compression = 1
)

// ParseCompression maps a config value ("zstd", "none", "") to a Compression. Empty means zstd.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "zstd":
		return CompressionZstd, nil
	case "none":
		return CompressionNone, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (supported: zstd, none)", s)
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Encode validates s and writes it to w.
func Encode(w io.Writer, s *VectorStore, c Compression) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	header := make([]byte, 0, 7)
	header = append(header, magic[:]...)
	header = binary.LittleEndian.AppendUint16(header, formatVersion)
	header = append(header, byte(c))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	switch c {
	case CompressionNone:
		bw := bufio.NewWriter(w)
		if err := writeBody(bw, s); err != nil {
			return err
		}
		return bw.Flush()
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		bw := bufio.NewWriter(enc)
		if err := writeBody(bw, s); err != nil {
			_ = enc.Close()
			return err
		}
		if err := bw.Flush(); err != nil {
			_ = enc.Close()
			return fmt.Errorf("flush body: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported compression %s", c)
	}
}

func writeBody(w *bufio.Writer, s *VectorStore) error {
	var created int64
	if !s.Meta.CreatedAt.IsZero() {
		created = s.Meta.CreatedAt.UnixNano()
	}
	writeString(w, s.Meta.BuildID)
	writeString(w, s.Meta.Model)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(created))
	w.Write(buf[:])
	binary.LittleEndian.PutUint32(buf[:4], uint32(s.Len()))
	w.Write(buf[:4])
	binary.LittleEndian.PutUint32(buf[:4], uint32(s.Dimensions()))
	w.Write(buf[:4])
	for _, c := range s.Chunks {
		writeString(w, c.ID)
		writeString(w, c.Text)
		writeString(w, c.Source)
	}
	for _, vec := range s.Embeddings {
		if _, err := w.Write(EncodeVector(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	// bufio.Writer keeps the first error; surface it here.
	if _, err := w.Write(nil); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

func writeString(w *bufio.Writer, s string) {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
	w.Write(l[:])
	w.WriteString(s)
}

// Decode reads a store written by Encode and validates its invariants.
func Decode(r io.Reader) (*VectorStore, error) {
	br := bufio.NewReader(r)
	var header [7]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformed, err)
	}
	if [4]byte(header[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformed, header[:4])
	}
	if v := binary.LittleEndian.Uint16(header[4:6]); v != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrMalformed, v)
	}
	var body io.Reader
	switch Compression(header[6]) {
	case CompressionNone:
		body = br
	case CompressionZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: open zstd stream: %v", ErrMalformed, err)
		}
		defer dec.Close()
		body = bufio.NewReader(dec)
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrMalformed, header[6])
	}
	s, err := readBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var extra [1]byte
	if n, _ := body.Read(extra[:]); n > 0 {
		return nil, fmt.Errorf("%w: trailing data after embeddings", ErrMalformed)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s, nil
}

func readBody(r io.Reader) (*VectorStore, error) {
	s := &VectorStore{}
	var err error
	if s.Meta.BuildID, err = readString(r); err != nil {
		return nil, fmt.Errorf("read build id: %w", err)
	}
	if s.Meta.Model, err = readString(r); err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var fixed [16]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, fmt.Errorf("read counts: %w", err)
	}
	if created := int64(binary.LittleEndian.Uint64(fixed[:8])); created != 0 {
		s.Meta.CreatedAt = time.Unix(0, created).UTC()
	}
	n := binary.LittleEndian.Uint32(fixed[8:12])
	d := binary.LittleEndian.Uint32(fixed[12:16])
	if n > 0 && d == 0 {
		return nil, fmt.Errorf("zero dimension for %d chunks", n)
	}
	if d > maxDimensions {
		return nil, fmt.Errorf("dimension %d exceeds limit %d", d, maxDimensions)
	}
	s.Chunks = make([]models.Chunk, 0, min(n, 1<<16))
	for i := uint32(0); i < n; i++ {
		var c models.Chunk
		if c.ID, err = readString(r); err != nil {
			return nil, fmt.Errorf("read chunk %d id: %w", i, err)
		}
		if c.Text, err = readString(r); err != nil {
			return nil, fmt.Errorf("read chunk %d text: %w", i, err)
		}
		if c.Source, err = readString(r); err != nil {
			return nil, fmt.Errorf("read chunk %d source: %w", i, err)
		}
		s.Chunks = append(s.Chunks, c)
	}
	if n == 0 {
		return s, nil
	}
	s.Embeddings = make([][]float32, 0, len(s.Chunks))
	buf := make([]byte, int(d)*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read embedding %d: %w", i, err)
		}
		vec, err := DecodeVector(buf)
		if err != nil {
			return nil, err
		}
		s.Embeddings = append(s.Embeddings, vec)
	}
	return s, nil
}

func readString(r io.Reader) (string, error) {
	var l [4]byte
	if _, err := io.ReadFull(r, l[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(l[:])
	if n > maxStringLen {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeVector encodes vec as consecutive little-endian IEEE 754 float32 values.
func EncodeVector(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodeVector decodes bytes produced by EncodeVector. The result does not alias b.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector length %d (not multiple of 4)", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
