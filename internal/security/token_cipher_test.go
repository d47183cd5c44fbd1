package security

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestNewTokenCipher_ValidKey(t *testing.T) {
	cipher, err := NewTokenCipher(testKey())
	if err != nil {
		t.Fatalf("NewTokenCipher() がエラーを返した: %v", err)
	}
	if cipher == nil {
		t.Fatal("NewTokenCipher() が nil を返した")
	}
}

func TestNewTokenCipher_InvalidBase64(t *testing.T) {
	_, err := NewTokenCipher("not-valid-base64!!!")
	if err == nil {
		t.Fatal("不正なbase64鍵でエラーを返すべき")
	}
}

func TestNewTokenCipher_WrongKeyLength(t *testing.T) {
	shortKey := base64.StdEncoding.EncodeToString([]byte("too-short"))
	_, err := NewTokenCipher(shortKey)
	if err == nil {
		t.Fatal("32バイト以外の鍵でエラーを返すべき")
	}
	if !strings.Contains(err.Error(), "32 bytes") {
		t.Errorf("エラーメッセージが期待と異なる: %v", err)
	}
}

func TestTokenCipher_RoundTrip(t *testing.T) {
	cipher, err := NewTokenCipher(testKey())
	if err != nil {
		t.Fatalf("NewTokenCipher() がエラーを返した: %v", err)
	}

	plaintext := "secret_notion_token_abc123"
	encrypted, err := cipher.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() がエラーを返した: %v", err)
	}
	if encrypted == plaintext {
		t.Error("暗号文が平文と同一")
	}

	decrypted, err := cipher.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt() がエラーを返した: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("Decrypt() = %q, want %q", decrypted, plaintext)
	}
}

func TestTokenCipher_EncryptIsNonDeterministic(t *testing.T) {
	cipher, _ := NewTokenCipher(testKey())

	first, _ := cipher.Encrypt("same-token")
	second, _ := cipher.Encrypt("same-token")

	// nonceがランダムなため同じ平文でも暗号文は毎回異なる
	if first == second {
		t.Error("同一平文の暗号文が一致した（nonceが固定されている疑い）")
	}
}

func TestTokenCipher_DecryptTamperedCiphertext(t *testing.T) {
	cipher, _ := NewTokenCipher(testKey())

	encrypted, _ := cipher.Encrypt("secret")
	raw, _ := base64.StdEncoding.DecodeString(encrypted)
	raw[len(raw)-1] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err := cipher.Decrypt(tampered)
	if err == nil {
		t.Fatal("改ざんされた暗号文の復号はエラーを返すべき")
	}
}

func TestTokenCipher_DecryptWithDifferentKey(t *testing.T) {
	cipher1, _ := NewTokenCipher(testKey())
	otherKey := base64.StdEncoding.EncodeToString([]byte("ffffffffffffffffffffffffffffffff"))
	cipher2, _ := NewTokenCipher(otherKey)

	encrypted, _ := cipher1.Encrypt("secret")

	_, err := cipher2.Decrypt(encrypted)
	if err == nil {
		t.Fatal("異なる鍵での復号はエラーを返すべき")
	}
}

func TestTokenCipher_DecryptTooShort(t *testing.T) {
	cipher, _ := NewTokenCipher(testKey())

	short := base64.StdEncoding.EncodeToString([]byte("abc"))
	_, err := cipher.Decrypt(short)
	if err == nil {
		t.Fatal("nonceより短い入力の復号はエラーを返すべき")
	}
}
