package service

import (
	"crypto/md5"
	"encoding/base64"
)

// aliasLength is the fixed length of generated short codes. Collisions are
// possible by design and handled by the caller's retry loop.
const aliasLength = 8

// GenerateAlias derives a short code from a hash of the long URL plus an
// optional salt. The result is deterministic for a fixed input and salt.
func GenerateAlias(longURL, salt string) string {
	sum := md5.Sum([]byte(longURL + salt))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:aliasLength]
}
