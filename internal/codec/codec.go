// Package codec serialises RGBTokens for storage.
//
// A token is stored as a small JSON envelope carrying a format version and
// the token data. When compression is enabled the envelope is wrapped in an
// xz stream; Decode recognises the xz magic and unwraps it transparently, so
// plain and compressed blobs can live side by side in the same table.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/otic/internal/fingerprint"
	"github.com/jmylchreest/otic/internal/security"
)

// FormatVersion is the envelope version written by Encode.
const FormatVersion = 1

// maxDecodedSize bounds the decompressed size of a stored token. A 64-bin
// histogram serialises to well under this.
const maxDecodedSize = 16 * 1024 * 1024

// xzMagic is the xz stream header magic.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// ErrCorruptToken is returned when a stored token cannot be decoded or
// fails structural validation.
var ErrCorruptToken = errors.New("corrupt token")

// Options configures Encode.
type Options struct {
	// Compress wraps the JSON envelope in xz.
	Compress bool
}

type envelope struct {
	Version int                   `json:"version"`
	Token   fingerprint.TokenData `json:"token"`
}

// Encode serialises a token.
func Encode(tok *fingerprint.RGBToken, opts Options) ([]byte, error) {
	if tok == nil {
		return nil, fmt.Errorf("cannot encode nil token")
	}

	payload, err := json.Marshal(envelope{Version: FormatVersion, Token: tok.Data()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token: %w", err)
	}
	if !opts.Compress {
		return payload, nil
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to compress token: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return buf.Bytes(), nil
}

// IsCompressed reports whether data starts with the xz magic.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, xzMagic)
}

// Decode restores a token from Encode's output. Every failure wraps
// ErrCorruptToken.
func Decode(data []byte) (*fingerprint.RGBToken, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrCorruptToken)
	}

	if IsCompressed(data) {
		var err error
		data, err = decompress(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptToken, err)
		}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: failed to parse token: %w", ErrCorruptToken, err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruptToken, env.Version)
	}
	if err := env.Token.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptToken, err)
	}

	return fingerprint.NewToken(env.Token), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}

	out, err := io.ReadAll(security.NewLimitedReader(r, maxDecodedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress token: %w", err)
	}
	return out, nil
}
