package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

var (
	// ErrPacketTooShort 表示加密报文长度不足，
	// 无法包含完整的 nonce、密文和 MAC。
	ErrPacketTooShort = errors.New("crypto: packet too short")

	// ErrInvalidMAC 表示 HMAC 签名校验失败。
	ErrInvalidMAC = errors.New("crypto: invalid mac")
)

// KeySize 为 AES-256 密钥长度。
const KeySize = 32

// AEADHMACEncryptor 组合两层保护：
//   - 对称加密：AES-256-GCM（AEAD，提供机密性与完整性）
//   - 消息签名：HMAC-SHA256（对 nonce、密文和关联数据再做一层签名）
//
// aad 为帧头等不加密但需要防篡改的数据。
//
// 报文格式：nonce || ciphertext || mac
//   - nonce     ：随机数，长度等于 AEAD.NonceSize()
//   - ciphertext：AES-GCM 加密后的密文（包含 GCM tag）
//   - mac       ：HMAC-SHA256(nonce || ciphertext || aad)
type AEADHMACEncryptor struct {
	aead    cipher.AEAD
	hmacKey []byte
}

var _ Encryptor = (*AEADHMACEncryptor)(nil)

// NewAESGCMHMAC 使用 AES-256-GCM + HMAC-SHA256 创建加密器。
//
// encKey 长度必须为 32 字节，macKey 为任意非空的 HMAC 密钥。
func NewAESGCMHMAC(encKey, macKey []byte) (*AEADHMACEncryptor, error) {
	if len(encKey) != KeySize {
		return nil, merr.WrapErrParameterInvalid(KeySize, len(encKey), "encryption key size")
	}
	if len(macKey) == 0 {
		return nil, merr.WrapErrParameterMissing("macKey")
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, errors.Wrap(err, "crypto: new cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "crypto: new gcm")
	}
	return &AEADHMACEncryptor{
		aead:    aead,
		hmacKey: append([]byte(nil), macKey...),
	}, nil
}

func (c *AEADHMACEncryptor) mac(nonce, ciphertext, aad []byte) []byte {
	m := hmac.New(sha256.New, c.hmacKey)
	_, _ = m.Write(nonce)
	_, _ = m.Write(ciphertext)
	_, _ = m.Write(aad)
	return m.Sum(nil)
}

// Encrypt 加密 plaintext 并附加签名。
func (c *AEADHMACEncryptor) Encrypt(plaintext, aad []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	packet := make([]byte, nonceSize, nonceSize+len(plaintext)+c.aead.Overhead()+sha256.Size)
	if _, err := io.ReadFull(rand.Reader, packet); err != nil {
		return nil, errors.Wrap(err, "crypto: read nonce")
	}
	nonce := packet[:nonceSize]

	packet = c.aead.Seal(packet, nonce, plaintext, aad)
	packet = append(packet, c.mac(nonce, packet[nonceSize:], aad)...)
	return packet, nil
}

// Decrypt 校验签名并解密 Encrypt 生成的报文。aad 必须与加密时一致。
func (c *AEADHMACEncryptor) Decrypt(packet, aad []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(packet) < nonceSize+sha256.Size {
		return nil, ErrPacketTooShort
	}

	nonce := packet[:nonceSize]
	macOffset := len(packet) - sha256.Size
	ciphertext := packet[nonceSize:macOffset]

	if !hmac.Equal(c.mac(nonce, ciphertext, aad), packet[macOffset:]) {
		return nil, ErrInvalidMAC
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, errors.Wrap(err, "crypto: open")
	}
	return plaintext, nil
}
