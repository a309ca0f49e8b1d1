package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
)

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// ScanFileHashes hashes each slash path relative to root. Files that no
// longer exist are left out.
func ScanFileHashes(root string, paths []string) (map[string]string, error) {
	hashes := make(map[string]string, len(paths))
	for _, rel := range paths {
		hash, err := HashFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		hashes[rel] = hash
	}
	return hashes, nil
}
