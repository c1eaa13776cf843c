package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPasscode hashes a private room passcode for storage.
func HashPasscode(passcode string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passcode: %w", err)
	}
	return string(hashed), nil
}

// CheckPasscode reports whether passcode matches the stored hash. An empty
// hash means the room is open.
func CheckPasscode(hash, passcode string) bool {
	if hash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
}
