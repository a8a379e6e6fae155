package ssh

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	gossh "golang.org/x/crypto/ssh"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/logger"
)

// keyAlgorithm identifies one host key slot. Each slot maps to a file
// in the key directory named after the algorithm.
type keyAlgorithm string

const (
	keyEd25519 keyAlgorithm = "ed25519"
	keyRSA     keyAlgorithm = "rsa"
	keyECDSA   keyAlgorithm = "ecdsa"
)

// LoadHostKeys returns the server host keys, one per supported
// algorithm. Missing or empty key files are generated and persisted so
// the host identity survives restarts; unreadable or corrupt files fall
// back to an ephemeral key for this run only, with a warning.
func LoadHostKeys(keyDir string) ([]gossh.Signer, error) {
	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return nil, fmt.Errorf("create key directory %s: %w", keyDir, err)
	}

	signers := make([]gossh.Signer, 0, 3)
	for _, alg := range []keyAlgorithm{keyEd25519, keyRSA, keyECDSA} {
		signer, err := loadOrCreateKey(filepath.Join(keyDir, string(alg)), alg)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

func loadOrCreateKey(path string, alg keyAlgorithm) (gossh.Signer, error) {
	logger.Debug("loading host key", "path", path, "algorithm", alg)

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return generateAndPersist(path, alg)

	case err != nil:
		logger.Warn("host key file unreadable, using ephemeral key", "path", path, "error", err)
		return generateSigner(alg)

	case len(data) == 0:
		logger.Warn("host key file is empty, regenerating", "path", path)
		return generateAndPersist(path, alg)
	}

	signer, err := gossh.ParsePrivateKey(data)
	if err != nil {
		logger.Warn("host key file corrupt, using ephemeral key", "path", path, "error", err)
		return generateSigner(alg)
	}

	logger.Debug("loaded host key", "path", path, "type", signer.PublicKey().Type())
	return signer, nil
}

// generateAndPersist creates a fresh key and writes it to path. A
// failed write is logged but not fatal: the key still serves this run.
func generateAndPersist(path string, alg keyAlgorithm) (gossh.Signer, error) {
	key, err := generateKey(alg)
	if err != nil {
		return nil, err
	}

	block, err := gossh.MarshalPrivateKey(key, "")
	if err != nil {
		return nil, fmt.Errorf("marshal %s host key: %w", alg, err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		logger.Warn("failed to persist host key", "path", path, "error", err)
	} else {
		logger.Debug("wrote new host key", "path", path)
	}

	return gossh.NewSignerFromKey(key)
}

func generateSigner(alg keyAlgorithm) (gossh.Signer, error) {
	key, err := generateKey(alg)
	if err != nil {
		return nil, err
	}
	return gossh.NewSignerFromKey(key)
}

func generateKey(alg keyAlgorithm) (crypto.PrivateKey, error) {
	switch alg {
	case keyEd25519:
		_, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate ed25519 key: %w", err)
		}
		return key, nil

	case keyRSA:
		key, err := rsa.GenerateKey(rand.Reader, 3072)
		if err != nil {
			return nil, fmt.Errorf("generate rsa key: %w", err)
		}
		return key, nil

	case keyECDSA:
		key, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate ecdsa key: %w", err)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("unknown host key algorithm %q", alg)
	}
}
