package utils

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrIncorrectPassword = errors.New("incorrect password")

func ComparePass(password, hashPassword string) error {
	saltBase64, hashBase64, ok := strings.Cut(hashPassword, ".")
	if !ok {
		return errors.New("invalid hash format")
	}

	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return errors.New("invalid hash format")
	}
	hash, err := base64.StdEncoding.DecodeString(hashBase64)
	if err != nil {
		return errors.New("invalid hash format")
	}
	candidate := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, uint32(len(hash)))

	if subtle.ConstantTimeCompare(hash, candidate) != 1 {
		return ErrIncorrectPassword
	}
	return nil
}
