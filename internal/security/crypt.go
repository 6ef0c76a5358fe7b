package security

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/ordersheet/backend/internal/aws"
)

func LoadKeyFromBase64(b64 string) ([]byte, error) {
	k, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		// tolerate standard encoding too
		k, err = base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
		if err != nil {
			return nil, err
		}
	}
	if len(k) != 32 {
		return nil, errors.New("token encryption key must decode to 32 bytes")
	}
	return k, nil
}

// LoadKey resolves the token encryption key. When ssmParam is set the key is
// fetched from SSM Parameter Store (SecureString); otherwise b64 is decoded
// directly.
func LoadKey(ctx context.Context, ssmClient aws.SSMAPI, b64, ssmParam string) ([]byte, error) {
	if strings.TrimSpace(ssmParam) != "" {
		out, err := ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           sdkaws.String(ssmParam),
			WithDecryption: sdkaws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("ssm GetParameter %s: %w", ssmParam, err)
		}
		return LoadKeyFromBase64(sdkaws.ToString(out.Parameter.Value))
	}
	if strings.TrimSpace(b64) == "" {
		return nil, errors.New("TOKEN_ENC_KEY not set")
	}
	return LoadKeyFromBase64(b64)
}

// EncryptAESGCM returns base64url(nonce|ciphertext)
func EncryptAESGCM(key []byte, plaintext string) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	out := append(nonce, ct...)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func DecryptAESGCM(key []byte, b64url string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(b64url)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	ns := gcm.NonceSize()
	if len(raw) < ns {
		return "", errors.New("ciphertext too short")
	}

	nonce := raw[:ns]
	ct := raw[ns:]
	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
