// Package gpg signs and verifies exported reports with OpenPGP detached signatures.
package gpg

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE---"

// Verifier implements detached signature verification using ProtonMail's go-crypto
// A maintained, modern fork of golang.org/x/crypto/openpgp
// This is in external-adapters to isolate the external dependency
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a new GPG verifier
func NewVerifier() *Verifier {
	return &Verifier{keyring: make(openpgp.EntityList, 0)}
}

// ImportKeyFromFile imports a GPG key from a file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	return v.ImportKeyRing(bytes.NewReader(data))
}

// ImportKeyRing imports armored or binary keys from r
func (v *Verifier) ImportKeyRing(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, 10*1024*1024))
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found in file")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// Verify checks a detached signature over message and returns the signer's
// fingerprint
func (v *Verifier) Verify(message io.Reader, signature []byte) (string, error) {
	if len(v.keyring) == 0 {
		return "", fmt.Errorf("no GPG keys imported, call ImportKeyFromFile first")
	}

	// Security: Basic format validation
	if len(signature) < 10 {
		return "", fmt.Errorf("signature file too small to be valid GPG signature")
	}

	var (
		signer *openpgp.Entity
		err    error
	)
	if bytes.HasPrefix(signature, []byte(armoredSignaturePrefix)) {
		signer, err = openpgp.CheckArmoredDetachedSignature(v.keyring, message, bytes.NewReader(signature), nil)
	} else {
		signer, err = openpgp.CheckDetachedSignature(v.keyring, message, bytes.NewReader(signature), nil)
	}
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}
	return fingerprint(signer), nil
}

// VerifySignatureFromFile verifies a detached signature from a local file
func (v *Verifier) VerifySignatureFromFile(filePath, sigPath string) (string, error) {
	//nolint:gosec // G304: sigPath is user-provided for GPG verification
	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		return "", fmt.Errorf("failed to open signature file: %w", err)
	}

	//nolint:gosec // G304: filePath is user-provided for GPG verification
	dataFile, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer dataFile.Close()

	return v.Verify(dataFile, sigData)
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	return len(v.keyring)
}

// ClearKeyring clears all imported keys
func (v *Verifier) ClearKeyring() {
	v.keyring = make(openpgp.EntityList, 0)
}

func fingerprint(e *openpgp.Entity) string {
	if e == nil || e.PrimaryKey == nil {
		return ""
	}
	return fmt.Sprintf("%X", e.PrimaryKey.Fingerprint)
}
