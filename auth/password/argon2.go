package password

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

// Argon2Hasher implements Hasher with argon2id, encoding hashes as
// $argon2id$v=19$m=<KiB>,t=<iterations>,p=<threads>$<salt>$<key>.
type Argon2Hasher struct {
	time      uint32
	memory    uint32
	threads   uint8
	keyLen    uint32
	saltLen   int
	minLength int
}

// Argon2Option configures an Argon2Hasher.
type Argon2Option func(*Argon2Hasher)

func WithArgon2Time(t uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.time = t }
}

func WithArgon2Memory(kib uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.memory = kib }
}

func WithArgon2Threads(p uint8) Argon2Option {
	return func(h *Argon2Hasher) { h.threads = p }
}

func WithArgon2MinLength(n int) Argon2Option {
	return func(h *Argon2Hasher) {
		if n > 0 {
			h.minLength = n
		}
	}
}

// NewArgon2Hasher creates an argon2id Hasher (t=1, 64 MiB, p=4 by default).
func NewArgon2Hasher(opts ...Argon2Option) *Argon2Hasher {
	h := &Argon2Hasher{
		time:      1,
		memory:    64 * 1024,
		threads:   4,
		keyLen:    32,
		saltLen:   16,
		minLength: 1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	if err := checkInput(plaintext, h.minLength); err != nil {
		return "", err
	}
	salt, err := generateRandomBytes(h.saltLen)
	if err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, h.time, h.memory, h.threads, h.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Compare(plaintext, encoded string) (bool, error) {
	p, err := decodeArgon2(encoded)
	if err != nil {
		return false, err
	}
	if !utf8.ValidString(plaintext) {
		return false, nil
	}
	key := argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1, nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodeArgon2(encoded string) (*argon2Params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, fmt.Errorf("%w: not an argon2id hash", ErrMalformedHash)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version %q", ErrMalformedHash, parts[2])
	}

	var p argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, fmt.Errorf("%w: parameters: %w", ErrMalformedHash, err)
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return nil, fmt.Errorf("%w: zero parameter", ErrMalformedHash)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return nil, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return &p, nil
}
