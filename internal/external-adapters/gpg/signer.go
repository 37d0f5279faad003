package gpg

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// Signer produces armored detached signatures with a private key
type Signer struct {
	entity *openpgp.Entity
}

// NewSignerFromFile loads the first private key of an armored or binary
// keyring file
func NewSignerFromFile(keyPath string, passphrase []byte) (*Signer, error) {
	//nolint:gosec // G304: keyPath is the configured signing key
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open signing key: %w", err)
	}
	return NewSigner(bytes.NewReader(data), passphrase)
}

// NewSigner loads the first private key in r, decrypting it with
// passphrase when protected
func NewSigner(r io.Reader, passphrase []byte) (*Signer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to read signing key: %w", err)
		}
	}

	for _, entity := range keyring {
		if entity.PrivateKey == nil {
			continue
		}
		if err := decrypt(entity, passphrase); err != nil {
			return nil, err
		}
		return &Signer{entity: entity}, nil
	}
	return nil, fmt.Errorf("no private key found in keyring")
}

// NewSignerFromEntity wraps an already decrypted entity
func NewSignerFromEntity(entity *openpgp.Entity) *Signer {
	return &Signer{entity: entity}
}

func decrypt(entity *openpgp.Entity, passphrase []byte) error {
	if entity.PrivateKey.Encrypted {
		if len(passphrase) == 0 {
			return fmt.Errorf("signing key is encrypted and no passphrase was provided")
		}
		if err := entity.PrivateKey.Decrypt(passphrase); err != nil {
			return fmt.Errorf("failed to decrypt signing key: %w", err)
		}
	}
	for _, sub := range entity.Subkeys {
		if sub.PrivateKey != nil && sub.PrivateKey.Encrypted {
			if err := sub.PrivateKey.Decrypt(passphrase); err != nil {
				return fmt.Errorf("failed to decrypt signing subkey: %w", err)
			}
		}
	}
	return nil
}

// SignDetached writes an armored detached signature of message to w
func (s *Signer) SignDetached(w io.Writer, message io.Reader) error {
	if err := openpgp.ArmoredDetachSign(w, s.entity, message, nil); err != nil {
		return fmt.Errorf("failed to sign: %w", err)
	}
	return nil
}

// Fingerprint returns the hex fingerprint of the signing key
func (s *Signer) Fingerprint() string {
	return fingerprint(s.entity)
}

// WritePublicKey writes the armored public key, for distribution with
// exported reports
func (s *Signer) WritePublicKey(w io.Writer) error {
	wc, err := armor.Encode(w, openpgp.PublicKeyType, nil)
	if err != nil {
		return fmt.Errorf("failed to armor public key: %w", err)
	}
	if err := s.entity.Serialize(wc); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to serialize public key: %w", err)
	}
	return wc.Close()
}
