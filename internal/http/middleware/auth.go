package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const currentAdminKey = "currentAdmin"

// AdminSubject is the only principal the server issues tokens for.
const AdminSubject = "admin"

// ErrInvalidCredentials is returned when the admin password doesn't match.
var ErrInvalidCredentials = errors.New("invalid password")

// Admin is the authenticated caller of the admin routes.
type Admin struct {
	Subject string
}

// HashPassword produces the bcrypt hash expected in ADMIN_PASSWORD_HASH.
func HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a bcrypt hash with the plaintext.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// GetCurrentAdmin retrieves the Admin set by JWTMiddleware.
func GetCurrentAdmin(c *gin.Context) (*Admin, bool) {
	v, exists := c.Get(currentAdminKey)
	if !exists {
		return nil, false
	}
	admin, ok := v.(*Admin)
	return admin, ok
}
