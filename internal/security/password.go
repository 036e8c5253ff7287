package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

const (
	passwordHashVersion = "v1"
	iterations          = 120000
	minPasswordLength   = 8
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrPasswordTooWeak  = errors.New("password must contain an uppercase letter, a digit and a special character")
)

// CheckPasswordPolicy enforces the account password rules of the ticketing
// backend.
func CheckPasswordPolicy(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	var upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !digit || !special {
		return ErrPasswordTooWeak
	}
	return nil
}

// HashPassword checks the policy and returns the encoded salted hash
// "v1$<rounds>$<salt>$<digest>".
func HashPassword(password string) (string, error) {
	if err := CheckPasswordPolicy(password); err != nil {
		return "", err
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	h := storedHash{rounds: iterations, salt: salt, digest: stretch(password, salt, iterations)}
	return h.String(), nil
}

// VerifyPassword reports whether password matches encoded. Malformed hashes
// never match.
func VerifyPassword(password, encoded string) bool {
	h, err := parseStoredHash(encoded)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(stretch(password, h.salt, h.rounds), h.digest) == 1
}

type storedHash struct {
	rounds int
	salt   []byte
	digest []byte
}

func (h storedHash) String() string {
	enc := base64.RawStdEncoding
	return strings.Join([]string{
		passwordHashVersion,
		strconv.Itoa(h.rounds),
		enc.EncodeToString(h.salt),
		enc.EncodeToString(h.digest),
	}, "$")
}

var errMalformedHash = errors.New("malformed password hash")

func parseStoredHash(encoded string) (storedHash, error) {
	version, rest, ok := strings.Cut(encoded, "$")
	if !ok || version != passwordHashVersion {
		return storedHash{}, errMalformedHash
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 3 {
		return storedHash{}, errMalformedHash
	}
	rounds, err := strconv.Atoi(fields[0])
	if err != nil || rounds < 100000 {
		return storedHash{}, errMalformedHash
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(fields[1])
	if err != nil || len(salt) == 0 {
		return storedHash{}, errMalformedHash
	}
	digest, err := enc.DecodeString(fields[2])
	if err != nil || len(digest) != sha256.Size {
		return storedHash{}, errMalformedHash
	}
	return storedHash{rounds: rounds, salt: salt, digest: digest}, nil
}

// stretch hashes salt+password once, then rehashes digest+salt rounds-1 times.
func stretch(password string, salt []byte, rounds int) []byte {
	sum := sha256.Sum256(append(slices.Clone(salt), password...))
	for i := 1; i < rounds; i++ {
		sum = sha256.Sum256(append(sum[:], salt...))
	}
	return sum[:]
}
