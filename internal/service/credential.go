package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// recognizedHashPrefixes mark values that are already hashed and must be stored as-is.
var recognizedHashPrefixes = []string{"$2a$", "$2b$", "$2y$", "bcrypt$", "pbkdf2_sha256$", "argon2"}

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

// IsHashedCredential reports whether value carries a recognized hash prefix.
func IsHashedCredential(value string) bool {
	for _, prefix := range recognizedHashPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

// HashCredential returns the value to persist for an already stored credential.
// Empty and already hashed values are returned unchanged; anything else is bcrypt-hashed.
// Passwords received from clients go through HashPassword instead.
func HashCredential(value string) (string, error) {
	if value == "" || IsHashedCredential(value) {
		return value, nil
	}
	return HashPassword(value)
}

// HashPassword bcrypt-hashes a plaintext password regardless of how it looks.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(hash), nil
}

// VerifyCredential checks a plaintext password against a stored hash in any recognized format.
func VerifyCredential(stored, password string) bool {
	switch {
	case strings.HasPrefix(stored, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	case strings.HasPrefix(stored, "bcrypt$"):
		return bcrypt.CompareHashAndPassword([]byte(strings.TrimPrefix(stored, "bcrypt$")), []byte(password)) == nil
	case strings.HasPrefix(stored, "pbkdf2_sha256$"):
		return verifyPBKDF2(stored, password)
	case strings.HasPrefix(stored, "argon2$"):
		return verifyArgon2(stored, password)
	}
	return false
}

// NeedsRehash reports whether a stored hash should be upgraded to bcrypt after a successful login.
func NeedsRehash(stored string) bool {
	return !strings.HasPrefix(stored, "$2")
}

// verifyPBKDF2 checks pbkdf2_sha256$<iterations>$<salt>$<base64 digest>.
func verifyPBKDF2(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(parts[2]), iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// verifyArgon2 checks argon2$argon2id$v=19$m=<kib>,t=<time>,p=<threads>$<salt>$<digest>
// with unpadded base64 salt and digest.
func verifyArgon2(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || (parts[1] != "argon2id" && parts[1] != "argon2i") {
		return false
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	var got []byte
	if parts[1] == "argon2id" {
		got = argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	} else {
		got = argon2.Key([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}
