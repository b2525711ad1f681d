// Package crypto 提供帧负载的加密与认证。
package crypto

// Encryptor 对单个负载做加密与认证。
//
// aad 是只需认证、不需加密的关联数据，codec 传入帧头，
// 因此篡改帧头同样会导致 Decrypt 失败。
type Encryptor interface {
	Encrypt(plaintext, aad []byte) (packet []byte, err error)
	Decrypt(packet, aad []byte) (plaintext []byte, err error)
}
