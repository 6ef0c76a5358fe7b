package security

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(0x42)

	enc, err := EncryptAESGCM(key, "shpat_supersecret")
	require.NoError(t, err)
	require.NotContains(t, enc, "shpat_")

	dec, err := DecryptAESGCM(key, enc)
	require.NoError(t, err)
	require.Equal(t, "shpat_supersecret", dec)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	key := testKey(0x42)

	a, err := EncryptAESGCM(key, "same plaintext")
	require.NoError(t, err)
	b, err := EncryptAESGCM(key, "same plaintext")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	enc, err := EncryptAESGCM(testKey(0x42), "secret")
	require.NoError(t, err)

	_, err = DecryptAESGCM(testKey(0x43), enc)
	require.Error(t, err)
}

func TestDecryptRejectsTruncatedInput(t *testing.T) {
	_, err := DecryptAESGCM(testKey(0x42), base64.RawURLEncoding.EncodeToString([]byte("short")))
	require.Error(t, err)
}

func TestLoadKeyFromBase64(t *testing.T) {
	key := testKey(0x01)

	got, err := LoadKeyFromBase64(base64.RawURLEncoding.EncodeToString(key))
	require.NoError(t, err)
	require.Equal(t, key, got)

	// standard encoding with padding works too
	got, err = LoadKeyFromBase64(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	require.Equal(t, key, got)

	_, err = LoadKeyFromBase64(base64.RawURLEncoding.EncodeToString([]byte("too short")))
	require.Error(t, err)

	_, err = LoadKeyFromBase64("not base64 at all!!!")
	require.Error(t, err)
}
