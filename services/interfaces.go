package services

// PasswordHasher abstracts password hashing so services never depend on a
// concrete algorithm. The bcrypt implementation lives in internal/auth.
type PasswordHasher interface {
	// Hash generates a hash for the given plaintext password.
	Hash(password string) (string, error)
	// Verify returns nil when the plaintext matches the hash.
	Verify(hashedPassword, password string) error
}
