package repository

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword computes the grid's salted password hash:
// md5hex(md5hex(password) + ":" + salt).
func HashPassword(password, salt string) string {
	inner := md5.Sum([]byte(password))
	outer := md5.Sum([]byte(hex.EncodeToString(inner[:]) + ":" + salt))
	return hex.EncodeToString(outer[:])
}

// NewSalt returns a random 32 hex character salt.
func NewSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CheckPassword reports whether password matches the stored hash and salt.
func CheckPassword(password, hash, salt string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
