package adminauth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DevPassword is accepted when neither a hash nor a password is configured.
const DevPassword = "admin123"

// PasswordVerifier checks the admin password against the configured
// credential: a bcrypt hash, a legacy hex SHA-256 digest, or a plaintext
// password for development.
type PasswordVerifier struct {
	hash  string
	plain string
}

func NewPasswordVerifier(hash, plain string) *PasswordVerifier {
	return &PasswordVerifier{hash: strings.TrimSpace(hash), plain: plain}
}

// Mode names the credential kind in use, for startup logging.
func (v *PasswordVerifier) Mode() string {
	switch {
	case isBcrypt(v.hash):
		return "bcrypt"
	case v.hash != "":
		return "sha256"
	case v.plain != "":
		return "plaintext"
	default:
		return "development-default"
	}
}

// Verify reports whether password matches.
func (v *PasswordVerifier) Verify(password string) bool {
	if password == "" {
		return false
	}
	switch {
	case isBcrypt(v.hash):
		return bcrypt.CompareHashAndPassword([]byte(v.hash), []byte(password)) == nil
	case v.hash != "":
		sum := sha256.Sum256([]byte(password))
		return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(v.hash))) == 1
	default:
		want := v.plain
		if want == "" {
			want = DevPassword
		}
		return subtle.ConstantTimeCompare([]byte(password), []byte(want)) == 1
	}
}

// HashPassword returns a bcrypt hash suitable for security.admin_password_hash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func isBcrypt(h string) bool {
	return strings.HasPrefix(h, "$2a$") || strings.HasPrefix(h, "$2b$") || strings.HasPrefix(h, "$2y$")
}
