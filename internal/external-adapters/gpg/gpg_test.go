package gpg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntity(t *testing.T) *openpgp.Entity {
	t.Helper()
	entity, err := openpgp.NewEntity("Report Signer", "test", "signer@example.test", nil)
	require.NoError(t, err)
	return entity
}

func armoredPrivateKey(t *testing.T, entity *openpgp.Entity) []byte {
	t.Helper()
	var buf bytes.Buffer
	wc, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.SerializePrivate(wc, nil))
	require.NoError(t, wc.Close())
	return buf.Bytes()
}

func TestSignAndVerify(t *testing.T) {
	entity := newTestEntity(t)
	signer, err := NewSigner(bytes.NewReader(armoredPrivateKey(t, entity)), nil)
	require.NoError(t, err)

	message := "# Acme internal\n\nExecutive summary.\n"
	var sig bytes.Buffer
	require.NoError(t, signer.SignDetached(&sig, strings.NewReader(message)))
	assert.True(t, strings.HasPrefix(sig.String(), "-----BEGIN PGP SIGNATURE-----"))

	var pub bytes.Buffer
	require.NoError(t, signer.WritePublicKey(&pub))

	verifier := NewVerifier()
	require.NoError(t, verifier.ImportKeyRing(&pub))
	assert.Equal(t, 1, verifier.GetKeyringSize())

	fp, err := verifier.Verify(strings.NewReader(message), sig.Bytes())
	require.NoError(t, err)
	assert.Equal(t, signer.Fingerprint(), fp)

	_, err = verifier.Verify(strings.NewReader(message+"tampered"), sig.Bytes())
	assert.ErrorContains(t, err, "signature verification failed")
}

func TestVerifySignatureFromFile(t *testing.T) {
	dir := t.TempDir()
	signer := NewSignerFromEntity(newTestEntity(t))

	dataPath := filepath.Join(dir, "report.md")
	sigPath := dataPath + ".asc"
	keyPath := filepath.Join(dir, "signer.asc")
	require.NoError(t, os.WriteFile(dataPath, []byte("report body"), 0o600))

	var sig, pub bytes.Buffer
	require.NoError(t, signer.SignDetached(&sig, bytes.NewReader([]byte("report body"))))
	require.NoError(t, signer.WritePublicKey(&pub))
	require.NoError(t, os.WriteFile(sigPath, sig.Bytes(), 0o600))
	require.NoError(t, os.WriteFile(keyPath, pub.Bytes(), 0o600))

	verifier := NewVerifier()
	require.NoError(t, verifier.ImportKeyFromFile(keyPath))

	fp, err := verifier.VerifySignatureFromFile(dataPath, sigPath)
	require.NoError(t, err)
	assert.Equal(t, signer.Fingerprint(), fp)
}

func TestNewSignerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.asc")
	require.NoError(t, os.WriteFile(path, armoredPrivateKey(t, newTestEntity(t)), 0o600))

	signer, err := NewSignerFromFile(path, nil)
	require.NoError(t, err)
	assert.Len(t, signer.Fingerprint(), 40)

	_, err = NewSignerFromFile(filepath.Join(t.TempDir(), "missing.asc"), nil)
	assert.ErrorContains(t, err, "failed to open signing key")
}

func TestNewSigner_PublicKeyOnly(t *testing.T) {
	var pub bytes.Buffer
	require.NoError(t, NewSignerFromEntity(newTestEntity(t)).WritePublicKey(&pub))

	_, err := NewSigner(&pub, nil)
	assert.ErrorContains(t, err, "no private key found")
}

func TestVerifier_NoKeysImported(t *testing.T) {
	_, err := NewVerifier().Verify(strings.NewReader("x"), []byte("-----BEGIN PGP SIGNATURE-----"))
	assert.ErrorContains(t, err, "no GPG keys imported")
}

func TestVerifier_ImportKeyFromFile_Errors(t *testing.T) {
	v := NewVerifier()

	err := v.ImportKeyFromFile("/nonexistent/key.asc")
	assert.ErrorContains(t, err, "failed to open key file")

	path := filepath.Join(t.TempDir(), "garbage.asc")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))
	err = v.ImportKeyFromFile(path)
	assert.Error(t, err)
	assert.Equal(t, 0, v.GetKeyringSize())
}

func TestVerifier_ClearKeyring(t *testing.T) {
	var pub bytes.Buffer
	require.NoError(t, NewSignerFromEntity(newTestEntity(t)).WritePublicKey(&pub))

	v := NewVerifier()
	require.NoError(t, v.ImportKeyRing(&pub))
	v.ClearKeyring()
	assert.Equal(t, 0, v.GetKeyringSize())
}
