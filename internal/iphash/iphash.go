// Package iphash derives privacy-preserving identities from client
// addresses.
package iphash

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// DefaultSalt is used when no salt is configured.
const DefaultSalt = "default-salt"

// Hasher computes hex(SHA256(ip || salt)). The salt is process-wide.
type Hasher struct {
	salt string
}

// New returns a Hasher for salt, falling back to DefaultSalt.
func New(salt string) *Hasher {
	if salt == "" {
		salt = DefaultSalt
	}
	return &Hasher{salt: salt}
}

// Hash is deterministic for a given ip and salt.
func (h *Hasher) Hash(ip string) string {
	sum := sha256.Sum256([]byte(ip + h.salt))
	return hex.EncodeToString(sum[:])
}

const loopback = "127.0.0.1"

// ClientIP picks the caller address: the first X-Forwarded-For entry, then
// X-Real-IP, then the socket peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return loopback
}
