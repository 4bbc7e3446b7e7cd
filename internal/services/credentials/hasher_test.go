package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSHA256HasherKnownDigest(t *testing.T) {
	tests := []struct {
		password string
		want     string
	}{
		{password: "pw1", want: "c592df4a86933b92addc9842402ddf198c638ea9be58916ee6e3734e1e3152f8"},
		{password: "hunter2", want: "f52fbd32b2b3b86ff88ef6c490628285f482af15ddcb29541f94bcf526a3f6c7"},
		{password: "", want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	}

	for _, tt := range tests {
		hash, err := SHA256Hasher{}.Hash(tt.password)
		require.NoError(t, err)
		assert.Equal(t, tt.want, hash)
	}
}

func TestSHA256HasherAcceptsUppercaseStoredHash(t *testing.T) {
	assert.True(t, SHA256Hasher{}.Verify("pw1", "C592DF4A86933B92ADDC9842402DDF198C638EA9BE58916EE6E3734E1E3152F8"))
}

func TestHashersRoundTrip(t *testing.T) {
	hashers := map[string]Hasher{
		"sha256":   SHA256Hasher{},
		"bcrypt":   BcryptHasher{Cost: bcrypt.MinCost},
		"argon2id": Argon2idHasher{},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("correct horse")
			require.NoError(t, err)
			assert.NotEqual(t, "correct horse", hash)

			assert.True(t, h.Verify("correct horse", hash))
			assert.False(t, h.Verify("wrong horse", hash))
			assert.False(t, h.Verify("", hash))
		})
	}
}

func TestSaltedHashersDiffer(t *testing.T) {
	for name, h := range map[string]Hasher{
		"bcrypt":   BcryptHasher{Cost: bcrypt.MinCost},
		"argon2id": Argon2idHasher{},
	} {
		t.Run(name, func(t *testing.T) {
			a, _ := h.Hash("pw")
			b, _ := h.Hash("pw")
			assert.NotEqual(t, a, b)
		})
	}
}

func TestDetectScheme(t *testing.T) {
	sha, _ := SHA256Hasher{}.Hash("pw")
	bc, _ := BcryptHasher{Cost: bcrypt.MinCost}.Hash("pw")
	ar, _ := Argon2idHasher{}.Hash("pw")

	tests := []struct {
		name string
		hash string
		want Scheme
	}{
		{name: "sha256", hash: sha, want: SchemeSHA256},
		{name: "bcrypt", hash: bc, want: SchemeBcrypt},
		{name: "argon2id", hash: ar, want: SchemeArgon2id},
		{name: "garbage", hash: "not-a-hash", want: ""},
		{name: "short hex", hash: "abcdef", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectScheme(tt.hash))
		})
	}
}

func TestNewHasherRejectsUnknownScheme(t *testing.T) {
	_, err := NewHasher("md5", 0)
	assert.Error(t, err)
}

func TestNewHasherRejectsBcryptCostOutOfRange(t *testing.T) {
	for _, cost := range []int{-1, bcrypt.MinCost - 1, bcrypt.MaxCost + 1} {
		_, err := NewHasher(SchemeBcrypt, cost)
		assert.Error(t, err, "cost %d", cost)
	}

	for _, cost := range []int{0, bcrypt.MinCost} {
		_, err := NewHasher(SchemeBcrypt, cost)
		assert.NoError(t, err, "cost %d", cost)
	}
}

func TestDefaultSchemeAcceptsLongPasswords(t *testing.T) {
	h, err := NewHasher("", bcrypt.MinCost)
	require.NoError(t, err)

	password := strings.Repeat("a", 100)
	hash, err := h.Hash(password)
	require.NoError(t, err)

	assert.Equal(t, SchemeBcrypt, DetectScheme(hash))
	assert.True(t, h.Verify(password, hash))
	// Bytes past bcrypt's 72 byte input limit still count
	assert.False(t, h.Verify(password[:72], hash))
	assert.False(t, h.Verify(password+"b", hash))
}

func TestBcryptHasherVerifiesPlainBcrypt(t *testing.T) {
	plain, err := bcrypt.GenerateFromPassword([]byte("pw1"), bcrypt.MinCost)
	require.NoError(t, err)

	h, err := NewHasher(SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	assert.Equal(t, SchemeBcrypt, DetectScheme(string(plain)))
	assert.True(t, h.Verify("pw1", string(plain)))
	assert.False(t, h.Verify("pw2", string(plain)))
}

func TestCompatHasherVerifiesLegacyHashes(t *testing.T) {
	h, err := NewHasher(SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	legacy, _ := SHA256Hasher{}.Hash("pw1")
	assert.True(t, h.Verify("pw1", legacy))
	assert.False(t, h.Verify("pw2", legacy))

	argon, _ := Argon2idHasher{}.Hash("pw1")
	assert.True(t, h.Verify("pw1", argon))

	fresh, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.Equal(t, SchemeBcrypt, DetectScheme(fresh))
	assert.True(t, h.Verify("pw1", fresh))
}

func TestCompatHasherPrimaryScheme(t *testing.T) {
	for _, scheme := range []Scheme{SchemeSHA256, SchemeBcrypt, SchemeArgon2id} {
		t.Run(string(scheme), func(t *testing.T) {
			h, err := NewHasher(scheme, bcrypt.MinCost)
			require.NoError(t, err)

			hash, err := h.Hash("pw")
			require.NoError(t, err)
			assert.Equal(t, scheme, DetectScheme(hash))
		})
	}
}

func TestCompatHasherRejectsUnknownFormat(t *testing.T) {
	h, _ := NewHasher(SchemeSHA256, 0)
	assert.False(t, h.Verify("pw", "plaintext-pw"))
}
