package util

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
)

// HashOwnerKey returns a filesystem-safe identifier for an owner ID such as
// "user:42" or "guest:abc".
func HashOwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

// ArtifactKey builds the storage key for a generated CV artifact. Artifacts of
// the same CV share a directory so they can be listed or removed together.
func ArtifactKey(ownerID, cvID, fileName string) (string, error) {
	name, err := SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(HashOwnerKey(ownerID), "cvs", cvID, name), nil
}
