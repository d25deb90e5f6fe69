// Package snapshot persists sessions as a JSON header line followed by the
// JSON-encoded session, all inside a zstd stream.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"

	"planets-engine/internal/sim/galaxy"
	"planets-engine/internal/sim/session"
)

const FormatVersion = 1

var ErrUnsupportedVersion = errors.New("snapshot: unsupported format version")

// Header is readable without decoding the whole session.
type Header struct {
	Version       int    `json:"version"`
	SessionID     string `json:"session_id"`
	Tick          int64  `json:"tick"`
	CatalogDigest string `json:"catalog_digest"`
	StreamVersion string `json:"stream_version"`
}

func headerOf(s *session.Session) Header {
	return Header{
		Version:       FormatVersion,
		SessionID:     s.ID,
		Tick:          s.Clock.Tick,
		CatalogDigest: s.CatalogDigest,
		StreamVersion: galaxy.StreamVersion,
	}
}

func Encode(w io.Writer, s *session.Session) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	hb, err := json.Marshal(headerOf(s))
	if err != nil {
		enc.Close()
		return fmt.Errorf("encode header: %w", err)
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(s); err != nil {
		enc.Close()
		return fmt.Errorf("encode session: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func Decode(r io.Reader) (*session.Session, Header, error) {
	var h Header
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, h, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, h, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != FormatVersion {
		return nil, h, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}

	var s session.Session
	if err := json.NewDecoder(br).Decode(&s); err != nil {
		return nil, h, fmt.Errorf("decode session: %w", err)
	}
	return &s, h, nil
}

func Marshal(s *session.Session) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Unmarshal(data []byte) (*session.Session, Header, error) {
	return Decode(bytes.NewReader(data))
}

func WriteFile(path string, s *session.Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadFile(path string) (*session.Session, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Digest hashes the simulated state only. Identity and wall-clock fields are
// left out so two replays of the same inputs share a digest.
func Digest(s *session.Session) (string, error) {
	c := s.Clone()
	c.ID = ""
	c.Label = ""
	c.CreatedAt = time.Time{}
	c.Clock.LastUpdate = nil

	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
