package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vgl-spec/soil-sub000/internal/apierror"
)

// maxPasswordLen is the bcrypt input limit in bytes.
const maxPasswordLen = 72

// passwords hashes and verifies account passwords. Rows imported from the
// legacy system may still hold plaintext; those are accepted once and handed
// back as a fresh hash for the caller to persist.
type passwords struct {
	cost int
}

func newPasswords(cost int) passwords {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return passwords{cost: cost}
}

func (p passwords) hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), p.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apierror.Validation(fmt.Sprintf("Password must be at most %d bytes", maxPasswordLen))
	}
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// isHash reports whether stored looks like a bcrypt hash. $2y$ is the PHP
// variant, which x/crypto verifies as-is.
func isHash(stored string) bool {
	if len(stored) != 60 {
		return false
	}
	for _, prefix := range []string{"$2a$", "$2b$", "$2x$", "$2y$"} {
		if strings.HasPrefix(stored, prefix) {
			return true
		}
	}
	return false
}

// verifyAndMaybeRehash checks plain against stored. When stored is legacy plaintext and
// matches, rehash carries the bcrypt hash that should replace it. A non-nil err
// with ok true means the password matched but could not be rehashed.
func (p passwords) verifyAndMaybeRehash(stored, plain string) (ok bool, rehash string, err error) {
	if isHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil, "", nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) != 1 {
		return false, "", nil
	}
	rehash, err = p.hash(plain)
	if err != nil {
		return true, "", err
	}
	return true, rehash, nil
}

// HashPassword hashes plain with bcrypt at cost, falling back to the default
// cost when cost is out of range.
func HashPassword(plain string, cost int) (string, error) {
	return newPasswords(cost).hash(plain)
}
