package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

type CryptoSuite struct {
	suite.Suite

	enc *AEADHMACEncryptor
}

func (s *CryptoSuite) SetupSuite() {
	enc, err := NewAESGCMHMAC(bytes.Repeat([]byte{1}, KeySize), []byte("mac-key"))
	s.Require().NoError(err)
	s.enc = enc
}

func (s *CryptoSuite) TestRoundTrip() {
	aad := []byte{1, 0, 3, 1}
	plain := []byte("hello externalizor")

	packet, err := s.enc.Encrypt(plain, aad)
	s.Require().NoError(err)
	s.NotContains(string(packet), string(plain))

	got, err := s.enc.Decrypt(packet, aad)
	s.Require().NoError(err)
	s.Equal(plain, got)

	// nonce 随机，两次加密结果不同
	again, err := s.enc.Encrypt(plain, aad)
	s.Require().NoError(err)
	s.NotEqual(packet, again)
}

func (s *CryptoSuite) TestTamper() {
	aad := []byte("header")
	packet, err := s.enc.Encrypt([]byte("payload"), aad)
	s.Require().NoError(err)

	_, err = s.enc.Decrypt(packet, []byte("other"))
	s.ErrorIs(err, ErrInvalidMAC)

	packet[len(packet)/2] ^= 0xff
	_, err = s.enc.Decrypt(packet, aad)
	s.ErrorIs(err, ErrInvalidMAC)

	_, err = s.enc.Decrypt(packet[:4], aad)
	s.ErrorIs(err, ErrPacketTooShort)
}

func (s *CryptoSuite) TestInvalidKeys() {
	_, err := NewAESGCMHMAC([]byte("short"), []byte("mac"))
	s.ErrorIs(err, merr.ErrParameterInvalid)
	_, err = NewAESGCMHMAC(bytes.Repeat([]byte{1}, KeySize), nil)
	s.ErrorIs(err, merr.ErrParameterMissing)
}

func TestCrypto(t *testing.T) {
	suite.Run(t, new(CryptoSuite))
}
