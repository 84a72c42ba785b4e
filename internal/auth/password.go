package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword derives a salted one-way hash of the plaintext. bcrypt embeds
// a fresh random salt in every hash, so hashing the same plaintext twice
// yields different values that both verify.
//
// Callers hash exactly once per plaintext change: registration and password
// change are the only call sites. Profile updates never touch the stored
// hash, which keeps an unchanged value from being hashed twice.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
// Any mismatch, including a malformed stored hash, yields false.
func VerifyPassword(plaintext, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
