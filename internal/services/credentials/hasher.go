package credentials

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// Scheme names a password hashing algorithm
type Scheme string

const (
	// SchemeSHA256 is the legacy unsalted digest, lowercase hex.
	// Only use it when the store must stay readable by older servers.
	SchemeSHA256   Scheme = "sha256"
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeArgon2id Scheme = "argon2id"
)

// Hasher turns plaintext passwords into stored hashes and checks them
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// SHA256Hasher hashes with a single unsalted SHA-256 over the UTF-8 bytes
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Verify(password, hash string) bool {
	computed, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(hash))) == 1
}

// bcryptSHA256Prefix marks bcrypt hashes taken over a SHA-256 pre-hash.
// bcrypt only reads 72 bytes of input, so long passwords are digested first.
const bcryptSHA256Prefix = "$bcrypt-sha256$"

// BcryptHasher hashes with bcrypt at a fixed cost over the base64 SHA-256
// of the password. Plain bcrypt hashes from older stores still verify.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword(prehash(password), cost)
	if err != nil {
		return "", err
	}
	return bcryptSHA256Prefix + string(hash), nil
}

func (BcryptHasher) Verify(password, hash string) bool {
	if inner, ok := strings.CutPrefix(hash, bcryptSHA256Prefix); ok {
		return bcrypt.CompareHashAndPassword([]byte(inner), prehash(password)) == nil
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// Argon2idHasher hashes with argon2id in PHC string format
type Argon2idHasher struct {
	Params *argon2id.Params
}

// argon2Params is tuned for interactive logins on small servers
var argon2Params = &argon2id.Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func (h Argon2idHasher) Hash(password string) (string, error) {
	params := h.Params
	if params == nil {
		params = argon2Params
	}
	return argon2id.CreateHash(password, params)
}

func (Argon2idHasher) Verify(password, hash string) bool {
	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	return err == nil && ok
}

// CompatHasher hashes with one scheme but verifies hashes written by any
// known scheme, so a store created with the legacy digest keeps working
// after the server switches to a salted algorithm.
type CompatHasher struct {
	primary Hasher
	sha256  SHA256Hasher
	bcrypt  BcryptHasher
	argon   Argon2idHasher
}

// NewHasher returns a CompatHasher whose new hashes use scheme.
// bcryptCost of 0 selects bcrypt.DefaultCost.
func NewHasher(scheme Scheme, bcryptCost int) (*CompatHasher, error) {
	if bcryptCost != 0 && (bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost) {
		return nil, fmt.Errorf("bcrypt cost %d out of range %d-%d", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	h := &CompatHasher{bcrypt: BcryptHasher{Cost: bcryptCost}}
	switch scheme {
	case SchemeSHA256:
		h.primary = h.sha256
	case SchemeBcrypt, "":
		h.primary = h.bcrypt
	case SchemeArgon2id:
		h.primary = h.argon
	default:
		return nil, fmt.Errorf("unknown hash scheme %q", scheme)
	}
	return h, nil
}

func (h *CompatHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *CompatHasher) Verify(password, hash string) bool {
	switch DetectScheme(hash) {
	case SchemeBcrypt:
		return h.bcrypt.Verify(password, hash)
	case SchemeArgon2id:
		return h.argon.Verify(password, hash)
	case SchemeSHA256:
		return h.sha256.Verify(password, hash)
	default:
		return false
	}
}

// DetectScheme identifies the algorithm that produced a stored hash,
// returning "" when the format is not recognised
func DetectScheme(hash string) Scheme {
	switch {
	case strings.HasPrefix(hash, bcryptSHA256Prefix),
		strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return SchemeBcrypt
	case strings.HasPrefix(hash, "$argon2id$"):
		return SchemeArgon2id
	case isHexDigest(hash):
		return SchemeSHA256
	default:
		return ""
	}
}

func isHexDigest(s string) bool {
	if len(s) != hex.EncodedLen(sha256.Size) {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
