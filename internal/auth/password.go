package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. Stored hashes have the form hex(key) + "." + salt where
// salt is 16 random bytes hex encoded and fed to scrypt as text.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltBytes    = 16
)

var errMalformedHash = errors.New("malformed password hash")

// HashPassword derives a storable hash for password.
func HashPassword(password string) (string, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	salt := hex.EncodeToString(raw)
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key) + "." + salt, nil
}

// VerifyPassword recomputes the key with the stored salt and compares in
// constant time.
func VerifyPassword(stored, password string) (bool, error) {
	hashHex, salt, ok := strings.Cut(stored, ".")
	if !ok || hashHex == "" || salt == "" {
		return false, errMalformedHash
	}
	expected, err := hex.DecodeString(hashHex)
	if err != nil || len(expected) != scryptKeyLen {
		return false, errMalformedHash
	}
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(expected, key) == 1, nil
}

// dummyHash is verified against when no usable account exists so a miss
// costs the same as a wrong password.
var dummyHash = func() string {
	h, err := HashPassword("gymcore-timing-equaliser")
	if err != nil {
		panic(err)
	}
	return h
}()
