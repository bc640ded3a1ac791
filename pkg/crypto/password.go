package crypto

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the bcrypt cost factor (2^10 rounds) applied to every hash.
const PasswordCost = bcrypt.DefaultCost

// DummyHash is a well-formed bcrypt digest at PasswordCost of a throwaway
// value. The login flow compares against it when a username does not exist so
// the request burns the same hashing work either way and response latency
// cannot reveal whether the account is real.
const DummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword hashes plaintext using bcrypt with a fresh random salt.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
}

// ComparePassword compares plaintext to a stored digest. A malformed digest
// reports as a mismatch error, never a panic.
func ComparePassword(hash []byte, plain string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain))
}
