package auth

type PasswordService interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
}
