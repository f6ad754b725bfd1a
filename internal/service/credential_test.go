package service

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

func TestHashCredentialLeavesHashedValues(t *testing.T) {
	for _, stored := range []string{
		"",
		"$2a$10$abcdefghijklmnopqrstuv",
		"$2b$12$abcdefghijklmnopqrstuv",
		"$2y$10$abcdefghijklmnopqrstuv",
		"bcrypt$$2b$12$abc",
		"pbkdf2_sha256$260000$salt$digest",
		"argon2$argon2id$v=19$m=65536,t=2,p=1$c2FsdA$ZGlnZXN0",
	} {
		out, err := HashCredential(stored)
		require.NoError(t, err)
		assert.Equal(t, stored, out, stored)
	}
}

func TestHashCredentialHashesPlaintext(t *testing.T) {
	out, err := HashCredential("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", out)
	assert.True(t, IsHashedCredential(out))
	assert.True(t, VerifyCredential(out, "s3cret-pass"))
	assert.False(t, VerifyCredential(out, "wrong"))

	again, err := HashCredential(out)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestHashPasswordIgnoresHashLikePlaintext(t *testing.T) {
	for _, plaintext := range []string{"argon2isgreat", "$2b$notahash", "bcrypt$secret", "pbkdf2_sha256$pass"} {
		out, err := HashPassword(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, out)
		assert.True(t, strings.HasPrefix(out, "$2"), out)
		assert.True(t, VerifyCredential(out, plaintext), plaintext)
	}
}

func TestVerifyCredentialLegacyFormats(t *testing.T) {
	digest := pbkdf2.Key([]byte("legacy-pass"), []byte("NaCl"), 1000, 32, sha256.New)
	pbkdf2Hash := "pbkdf2_sha256$1000$NaCl$" + base64.StdEncoding.EncodeToString(digest)
	assert.True(t, VerifyCredential(pbkdf2Hash, "legacy-pass"))
	assert.False(t, VerifyCredential(pbkdf2Hash, "other"))
	assert.True(t, NeedsRehash(pbkdf2Hash))

	salt := []byte("somesalt")
	key := argon2.IDKey([]byte("legacy-pass"), salt, 1, 64*1024, 1, 32)
	argonHash := "argon2$argon2id$v=19$m=65536,t=1,p=1$" +
		base64.RawStdEncoding.EncodeToString(salt) + "$" + base64.RawStdEncoding.EncodeToString(key)
	assert.True(t, VerifyCredential(argonHash, "legacy-pass"))
	assert.False(t, VerifyCredential(argonHash, "other"))

	raw, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyCredential("bcrypt$"+string(raw), "legacy-pass"))
	assert.False(t, NeedsRehash(string(raw)))

	assert.False(t, VerifyCredential("plaintext", "plaintext"))
	assert.False(t, VerifyCredential("pbkdf2_sha256$broken", "x"))
}
