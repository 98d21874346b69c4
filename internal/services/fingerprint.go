package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Fingerprint hashes the visitor's IP and User-Agent, scoped to one link. It
// only approximates a unique visitor and is not an identity.
func Fingerprint(ip, userAgent string, linkID uint) string {
	h := sha256.New()
	h.Write([]byte(ip))
	h.Write([]byte{0})
	h.Write([]byte(userAgent))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatUint(uint64(linkID), 10)))
	return hex.EncodeToString(h.Sum(nil))
}
