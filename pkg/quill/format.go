package quill

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Binary layout: header (magic, version, flags, field count), then one
// length-prefixed payload per field with a trailing CRC32. The whole blob
// may additionally be wrapped in a secure envelope carrying zlib
// compression and/or AES-256-GCM encryption with a PBKDF2-derived key.

const (
	magicString = "QUILLDOC"
	versionV1   = uint16(1)

	headerSize = len(magicString) + 2 + 2 + 4

	fieldFlagSingleLine = uint8(1 << 0)

	envMagic      = "QUILLSEC"
	envVersionV1  = uint16(1)
	envFlagComp   = uint16(1 << 0)
	envFlagEnc    = uint16(1 << 1)
	envSaltSize   = 16
	envNonceSize  = 12
	envHeaderSize = len(envMagic) + 2 + 2 + envSaltSize + envNonceSize + 8
	kdfIterations = 200000
)

var (
	ErrInvalidMagic     = errors.New("quill: invalid magic")
	ErrUnsupportedVer   = errors.New("quill: unsupported version")
	ErrCorruptPayload   = errors.New("quill: corrupt field payload")
	ErrPasswordRequired = errors.New("quill: password required")
	ErrInvalidPassword  = errors.New("quill: invalid password")
	ErrInvalidEnvelope  = errors.New("quill: invalid secure envelope")
)

// SaveOptions selects the envelope features.
type SaveOptions struct {
	Compression bool
	Password    string // non-empty enables AES-256-GCM encryption
}

// LoadOptions carries the password for encrypted files.
type LoadOptions struct {
	Password string
}

// Save writes the document to path with no envelope.
func Save(path string, doc *Document) error {
	return SaveWithOptions(path, doc, SaveOptions{})
}

// SaveWithOptions validates, encodes and atomically writes the document.
func SaveWithOptions(path string, doc *Document, opts SaveOptions) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	blob := encodeDocument(doc)

	if opts.Compression || opts.Password != "" {
		var err error
		blob, err = encodeEnvelope(blob, opts)
		if err != nil {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads an unencrypted document from path.
func Load(path string) (*Document, error) {
	return LoadWithOptions(path, LoadOptions{})
}

// LoadWithOptions reads a document, unwrapping the secure envelope when
// present.
func LoadWithOptions(path string, opts LoadOptions) (*Document, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isEnvelope(blob) {
		blob, err = decodeEnvelope(blob, opts)
		if err != nil {
			return nil, err
		}
	}
	doc, err := decodeDocument(blob)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func encodeDocument(doc *Document) []byte {
	out := make([]byte, 0, 256)
	out = append(out, magicString...)
	out = appendU16(out, versionV1)
	out = appendU16(out, 0) // reserved flags
	out = appendU32(out, uint32(len(doc.Fields)))

	out = appendString(out, doc.Metadata.Author)
	out = appendString(out, doc.Metadata.Title)
	out = appendU64(out, uint64(doc.Metadata.CreatedUnix))
	out = appendU64(out, uint64(doc.Metadata.ModifiedUnix))

	for i := range doc.Fields {
		payload := encodeField(&doc.Fields[i])
		out = appendU32(out, uint32(len(payload)))
		out = append(out, payload...)
		out = appendU32(out, crc32.ChecksumIEEE(payload))
	}
	return out
}

func encodeField(f *Field) []byte {
	out := make([]byte, 0, 64+f.Buffer.Len()*2)
	out = appendU64(out, f.ID)
	out = append(out, byte(f.Kind))
	flags := uint8(0)
	if f.SingleLine {
		flags |= fieldFlagSingleLine
	}
	out = append(out, flags)
	out = appendU32(out, uint32(f.Buffer.MaxLength()))
	out = appendString(out, f.Buffer.String())
	out = appendU32(out, uint32(len(f.Spans)))
	for _, s := range f.Spans {
		out = appendU32(out, uint32(s.Start))
		out = appendU32(out, uint32(s.Length))
		out = append(out, byte(s.Style))
	}
	return out
}

func decodeDocument(blob []byte) (*Document, error) {
	if len(blob) < headerSize {
		return nil, ErrInvalidMagic
	}
	if string(blob[:len(magicString)]) != magicString {
		return nil, ErrInvalidMagic
	}
	p := len(magicString)
	if v := binary.LittleEndian.Uint16(blob[p : p+2]); v != versionV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVer, v)
	}
	p += 4 // version + reserved flags
	count := int(binary.LittleEndian.Uint32(blob[p : p+4]))
	p += 4

	doc := &Document{}
	rest := blob[p:]
	var ok bool
	if doc.Metadata.Author, rest, ok = readString(rest); !ok {
		return nil, ErrCorruptPayload
	}
	if doc.Metadata.Title, rest, ok = readString(rest); !ok {
		return nil, ErrCorruptPayload
	}
	if len(rest) < 16 {
		return nil, ErrCorruptPayload
	}
	doc.Metadata.CreatedUnix = int64(binary.LittleEndian.Uint64(rest[:8]))
	doc.Metadata.ModifiedUnix = int64(binary.LittleEndian.Uint64(rest[8:16]))
	rest = rest[16:]

	for i := 0; i < count; i++ {
		if len(rest) < 4 {
			return nil, ErrCorruptPayload
		}
		n := int(binary.LittleEndian.Uint32(rest[:4]))
		rest = rest[4:]
		if len(rest) < n+4 {
			return nil, ErrCorruptPayload
		}
		payload := rest[:n]
		sum := binary.LittleEndian.Uint32(rest[n : n+4])
		rest = rest[n+4:]
		if crc32.ChecksumIEEE(payload) != sum {
			return nil, fmt.Errorf("%w: crc mismatch in field %d", ErrCorruptPayload, i)
		}
		f, err := decodeField(payload)
		if err != nil {
			return nil, err
		}
		doc.Fields = append(doc.Fields, f)
	}
	return doc, nil
}

func decodeField(b []byte) (Field, error) {
	var f Field
	if len(b) < 14 {
		return f, ErrCorruptPayload
	}
	f.ID = binary.LittleEndian.Uint64(b[:8])
	f.Kind = FieldKind(b[8])
	f.SingleLine = b[9]&fieldFlagSingleLine != 0
	maxLen := int(binary.LittleEndian.Uint32(b[10:14]))
	text, rest, ok := readString(b[14:])
	if !ok {
		return f, ErrCorruptPayload
	}
	f.Buffer = NewBuffer(text, maxLen)
	if len(rest) < 4 {
		return f, ErrCorruptPayload
	}
	spanCount := int(binary.LittleEndian.Uint32(rest[:4]))
	rest = rest[4:]
	for i := 0; i < spanCount; i++ {
		if len(rest) < 9 {
			return f, ErrCorruptPayload
		}
		f.Spans = append(f.Spans, Span{
			Start:  int(binary.LittleEndian.Uint32(rest[:4])),
			Length: int(binary.LittleEndian.Uint32(rest[4:8])),
			Style:  StyleMask(rest[8]),
		})
		rest = rest[9:]
	}
	return f, nil
}

func isEnvelope(b []byte) bool {
	return len(b) >= len(envMagic) && string(b[:len(envMagic)]) == envMagic
}

func encodeEnvelope(payload []byte, opts SaveOptions) ([]byte, error) {
	flags := uint16(0)
	if opts.Compression {
		flags |= envFlagComp
		var err error
		payload, err = compressBytes(payload)
		if err != nil {
			return nil, err
		}
	}

	salt := make([]byte, envSaltSize)
	nonce := make([]byte, envNonceSize)
	if opts.Password != "" {
		if strings.TrimSpace(opts.Password) == "" {
			return nil, ErrPasswordRequired
		}
		flags |= envFlagEnc
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return nil, err
		}
		gcm, err := newGCM(opts.Password, salt)
		if err != nil {
			return nil, err
		}
		payload = gcm.Seal(nil, nonce, payload, nil)
	}

	out := make([]byte, envHeaderSize)
	copy(out, envMagic)
	p := len(envMagic)
	binary.LittleEndian.PutUint16(out[p:p+2], envVersionV1)
	binary.LittleEndian.PutUint16(out[p+2:p+4], flags)
	copy(out[p+4:p+4+envSaltSize], salt)
	copy(out[p+4+envSaltSize:p+4+envSaltSize+envNonceSize], nonce)
	binary.LittleEndian.PutUint64(out[p+4+envSaltSize+envNonceSize:], uint64(len(payload)))
	return append(out, payload...), nil
}

func decodeEnvelope(b []byte, opts LoadOptions) ([]byte, error) {
	if len(b) < envHeaderSize {
		return nil, ErrInvalidEnvelope
	}
	p := len(envMagic)
	if v := binary.LittleEndian.Uint16(b[p : p+2]); v != envVersionV1 {
		return nil, fmt.Errorf("%w: envelope version %d", ErrUnsupportedVer, v)
	}
	flags := binary.LittleEndian.Uint16(b[p+2 : p+4])
	salt := b[p+4 : p+4+envSaltSize]
	nonce := b[p+4+envSaltSize : p+4+envSaltSize+envNonceSize]
	payloadLen := binary.LittleEndian.Uint64(b[p+4+envSaltSize+envNonceSize:])
	if uint64(len(b)-envHeaderSize) != payloadLen {
		return nil, ErrInvalidEnvelope
	}
	payload := append([]byte(nil), b[envHeaderSize:]...)

	if flags&envFlagEnc != 0 {
		if strings.TrimSpace(opts.Password) == "" {
			return nil, ErrPasswordRequired
		}
		gcm, err := newGCM(opts.Password, salt)
		if err != nil {
			return nil, err
		}
		payload, err = gcm.Open(nil, nonce, payload, nil)
		if err != nil {
			return nil, ErrInvalidPassword
		}
	}
	if flags&envFlagComp != 0 {
		var err error
		payload, err = decompressBytes(payload)
		if err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func compressBytes(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(in); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressBytes(in []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func appendString(dst []byte, s string) []byte {
	dst = appendU32(dst, uint32(len(s)))
	return append(dst, s...)
}

func readString(src []byte) (string, []byte, bool) {
	if len(src) < 4 {
		return "", nil, false
	}
	n := int(binary.LittleEndian.Uint32(src[:4]))
	src = src[4:]
	if len(src) < n {
		return "", nil, false
	}
	return string(src[:n]), src[n:], true
}

func appendU16(dst []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(dst, b[:]...)
}

func appendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendU64(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}
