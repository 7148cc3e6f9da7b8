// Package auth implements the credential store and the session token
// lifecycle. Passwords are salted and stretched with PBKDF2-SHA256;
// session tokens are high-entropy random strings persisted per teacher.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/pbkdf2"

	"github.com/iliyamo/teacher-portal/internal/model"
	"github.com/iliyamo/teacher-portal/internal/repository"
)

const (
	saltBytes     = 16
	hashIterCount = 10000
	hashKeyLen    = 32
)

// ErrUnauthenticated is signalled for every credential or session failure.
// Unknown username, wrong password and dead session all look the same to the
// caller, which keeps the HTTP surface free of username enumeration.
var ErrUnauthenticated = errors.New("unauthenticated")

// NewSalt returns a fresh random salt, hex-encoded.
func NewSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword derives the stored hash for a raw password and salt.
func HashPassword(raw, salt string) string {
	key := pbkdf2.Key([]byte(raw), []byte(salt), hashIterCount, hashKeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPassword recomputes the derivation with the stored salt and compares
// it to the stored hash in constant time.
func VerifyPassword(storedHash, salt, raw string) bool {
	stored, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	derived := pbkdf2.Key([]byte(raw), []byte(salt), hashIterCount, hashKeyLen, sha256.New)
	return subtle.ConstantTimeCompare(stored, derived) == 1
}

// Credentials is the credential store: it owns teacher password material.
type Credentials struct {
	Teachers *repository.TeacherRepo
}

func NewCredentials(teachers *repository.TeacherRepo) *Credentials {
	return &Credentials{Teachers: teachers}
}

// SetPassword generates a fresh salt, derives the hash and overwrites the
// teacher's stored values.
func (c *Credentials) SetPassword(ctx context.Context, teacherID uint64, raw string) error {
	salt, err := NewSalt()
	if err != nil {
		return err
	}
	return c.Teachers.UpdatePassword(ctx, teacherID, HashPassword(raw, salt), salt)
}

// Verify resolves a username and checks the password. Both an unknown
// username and a wrong password come back as ErrUnauthenticated.
func (c *Credentials) Verify(ctx context.Context, username, raw string) (model.Teacher, error) {
	t, err := c.Teachers.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Teacher{}, ErrUnauthenticated
		}
		return model.Teacher{}, err
	}
	if !VerifyPassword(t.PasswordHash, t.Salt, raw) {
		return model.Teacher{}, ErrUnauthenticated
	}
	return t, nil
}
