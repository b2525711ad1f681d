package codec

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/externalizor-go/internal/compressor"
	"github.com/lk2023060901/externalizor-go/internal/crypto"
	"github.com/lk2023060901/externalizor-go/internal/serializer"
	"github.com/lk2023060901/externalizor-go/pkg/log"
	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

type message struct {
	ID   int64
	Body string
	Tags []string
}

func smallMessage() *message {
	return &message{ID: 7, Body: "hi", Tags: []string{"a"}}
}

func largeMessage() *message {
	return &message{ID: 42, Body: strings.Repeat("externalizor ", 512), Tags: []string{"x", "y", "z"}}
}

type CodecSuite struct {
	suite.Suite
}

func (s *CodecSuite) newCodec(opts ...Option) *Codec {
	opts = append([]Option{WithLogger(log.NewTestLogger(s.T(), zapcore.WarnLevel))}, opts...)
	c, err := New(opts...)
	s.Require().NoError(err)
	s.T().Cleanup(c.Close)
	return c
}

func (s *CodecSuite) newEncryptor() crypto.Encryptor {
	enc, err := crypto.NewAESGCMHMAC(bytes.Repeat([]byte{7}, crypto.KeySize), []byte("mac-key"))
	s.Require().NoError(err)
	return enc
}

func (s *CodecSuite) TestRoundTripPerAlgorithm() {
	for _, name := range []string{"none", "zstd", "snappy"} {
		s.Run(name, func() {
			cfg := DefaultConfig()
			cfg.Compression = name
			c := s.newCodec(WithConfig(cfg))

			in := largeMessage()
			frame, err := c.Marshal(in)
			s.Require().NoError(err)

			out := &message{}
			h, err := c.Unmarshal(frame, out)
			s.Require().NoError(err)
			s.Equal(in, out)
			s.Equal(FormatVersion.Major, h.Version().Major)
			s.Equal(name != "none", h.Flags.Has(FlagCompressed))
			s.Equal(name, h.Algorithm.String())
		})
	}
}

func (s *CodecSuite) TestCompressionShrinksLargePayload() {
	plain := s.newCodec()
	cfg := DefaultConfig()
	cfg.Compression = "zstd"
	packed := s.newCodec(WithConfig(cfg))

	a, err := plain.Marshal(largeMessage())
	s.Require().NoError(err)
	b, err := packed.Marshal(largeMessage())
	s.Require().NoError(err)
	s.Less(len(b), len(a))
}

func (s *CodecSuite) TestSmallPayloadSkipsCompression() {
	cfg := DefaultConfig()
	cfg.Compression = "snappy"
	c := s.newCodec(WithConfig(cfg))

	frame, err := c.Marshal(smallMessage())
	s.Require().NoError(err)
	h, err := c.Unmarshal(frame, &message{})
	s.Require().NoError(err)
	s.False(h.Flags.Has(FlagCompressed))
	s.Equal(compressor.AlgorithmNone, h.Algorithm)
}

func (s *CodecSuite) TestDecodeAcceptsAnyKnownAlgorithm() {
	cfg := DefaultConfig()
	cfg.Compression = "zstd"
	writer := s.newCodec(WithConfig(cfg))
	reader := s.newCodec()

	frame, err := writer.Marshal(largeMessage())
	s.Require().NoError(err)
	out := &message{}
	_, err = reader.Unmarshal(frame, out)
	s.Require().NoError(err)
	s.Equal(largeMessage(), out)
}

func (s *CodecSuite) TestStream() {
	c := s.newCodec()
	var buf bytes.Buffer
	for i := range 3 {
		s.Require().NoError(c.Encode(&buf, &message{ID: int64(i)}))
	}

	for i := range 3 {
		out := &message{}
		_, err := c.Decode(&buf, out)
		s.Require().NoError(err)
		s.Equal(int64(i), out.ID)
	}
	_, err := c.Decode(&buf, &message{})
	s.ErrorIs(err, io.EOF)
}

func (s *CodecSuite) TestEncodeRawAndDecodeRaw() {
	c := s.newCodec()
	var buf bytes.Buffer
	s.Require().NoError(c.EncodeRaw(&buf, []byte("payload")))
	s.Require().NoError(c.EncodeRaw(&buf, nil))

	h, payload, err := c.DecodeRaw(&buf)
	s.Require().NoError(err)
	s.Equal([]byte("payload"), payload)
	s.Equal(Flag(0), h.Flags)

	_, payload, err = c.DecodeRaw(&buf)
	s.Require().NoError(err)
	s.Empty(payload)
}

func (s *CodecSuite) TestDecodeRawPayloadOutlivesBuffer() {
	c := s.newCodec()
	var buf bytes.Buffer
	s.Require().NoError(c.EncodeRaw(&buf, []byte("first")))
	s.Require().NoError(c.EncodeRaw(&buf, []byte("other")))

	_, first, err := c.DecodeRaw(&buf)
	s.Require().NoError(err)
	_, _, err = c.DecodeRaw(&buf)
	s.Require().NoError(err)
	s.Equal([]byte("first"), first)
}

func (s *CodecSuite) TestTruncatedFrame() {
	c := s.newCodec()
	frame, err := c.Marshal(largeMessage())
	s.Require().NoError(err)

	_, err = c.Decode(bytes.NewReader(frame[:len(frame)-3]), &message{})
	s.ErrorIs(err, merr.ErrFrameInvalid)
	s.ErrorIs(err, io.ErrUnexpectedEOF)

	_, err = c.Decode(bytes.NewReader(frame[:2]), &message{})
	s.ErrorIs(err, merr.ErrFrameInvalid)
}

func (s *CodecSuite) TestUnmarshalRejectsLengthMismatch() {
	c := s.newCodec()
	frame, err := c.Marshal(smallMessage())
	s.Require().NoError(err)

	_, err = c.Unmarshal(append(frame, 0), &message{})
	s.ErrorIs(err, merr.ErrFrameInvalid)
	_, err = c.Unmarshal(frame[:3], &message{})
	s.ErrorIs(err, merr.ErrFrameInvalid)
}

func (s *CodecSuite) TestVersionMismatch() {
	c := s.newCodec()
	frame, err := c.Marshal(smallMessage())
	s.Require().NoError(err)

	frame[lengthSize] = uint8(FormatVersion.Major) + 1
	_, err = c.Unmarshal(frame, &message{})
	s.ErrorIs(err, merr.ErrFrameVersionMismatch)
}

func (s *CodecSuite) TestNewerMinorVersionIsAccepted() {
	c := s.newCodec()
	frame, err := c.Marshal(smallMessage())
	s.Require().NoError(err)

	frame[lengthSize+1] = uint8(FormatVersion.Minor) + 1
	out := &message{}
	h, err := c.Unmarshal(frame, out)
	s.Require().NoError(err)
	s.Equal(smallMessage(), out)
	s.Equal(FormatVersion.Minor+1, h.Version().Minor)
}

func (s *CodecSuite) TestInvalidHeader() {
	c := s.newCodec()
	frame, err := c.Marshal(smallMessage())
	s.Require().NoError(err)

	unknownFlag := bytes.Clone(frame)
	unknownFlag[lengthSize+2] = 0x80
	_, err = c.Unmarshal(unknownFlag, &message{})
	s.ErrorIs(err, merr.ErrFrameInvalid)

	flagWithoutAlgorithm := bytes.Clone(frame)
	flagWithoutAlgorithm[lengthSize+2] = uint8(FlagCompressed)
	_, err = c.Unmarshal(flagWithoutAlgorithm, &message{})
	s.ErrorIs(err, merr.ErrFrameInvalid)

	unknownAlgorithm := bytes.Clone(frame)
	unknownAlgorithm[lengthSize+2] = uint8(FlagCompressed)
	unknownAlgorithm[lengthSize+3] = 0x7f
	_, err = c.Unmarshal(unknownAlgorithm, &message{})
	s.ErrorIs(err, merr.ErrFrameInvalid)
}

func (s *CodecSuite) TestFrameTooLarge() {
	cfg := DefaultConfig()
	cfg.MaxFrameSize = 64
	c := s.newCodec(WithConfig(cfg))

	_, err := c.Marshal(largeMessage())
	s.ErrorIs(err, merr.ErrFrameTooLarge)

	big := s.newCodec()
	frame, err := big.Marshal(largeMessage())
	s.Require().NoError(err)
	_, err = c.Decode(bytes.NewReader(frame), &message{})
	s.ErrorIs(err, merr.ErrFrameTooLarge)
}

func (s *CodecSuite) TestCompressedFrameExpandsPastLimit() {
	zeros := make([]byte, 8<<20)
	for _, alg := range []string{"zstd", "snappy"} {
		cfg := DefaultConfig()
		cfg.Compression = alg
		sender := s.newCodec(WithConfig(cfg))
		var buf bytes.Buffer
		s.Require().NoError(sender.EncodeRaw(&buf, zeros), alg)
		s.Less(buf.Len(), 1<<20, alg)

		cfg.MaxFrameSize = 1 << 20
		receiver := s.newCodec(WithConfig(cfg))
		_, _, err := receiver.DecodeRaw(bytes.NewReader(buf.Bytes()))
		s.ErrorIs(err, merr.ErrFrameTooLarge, alg)
	}
}

func (s *CodecSuite) TestEncryption() {
	cfg := DefaultConfig()
	cfg.Compression = "zstd"
	c := s.newCodec(WithConfig(cfg), WithEncryptor(s.newEncryptor()))

	in := largeMessage()
	frame, err := c.Marshal(in)
	s.Require().NoError(err)
	s.NotContains(string(frame), "externalizor")

	out := &message{}
	h, err := c.Unmarshal(frame, out)
	s.Require().NoError(err)
	s.Equal(in, out)
	s.True(h.Flags.Has(FlagEncrypted))
	s.True(h.Flags.Has(FlagCompressed))
}

func (s *CodecSuite) TestEncryptionAuthenticatesHeader() {
	c := s.newCodec(WithEncryptor(s.newEncryptor()))
	frame, err := c.Marshal(smallMessage())
	s.Require().NoError(err)

	frame[lengthSize+1]++
	_, err = c.Unmarshal(frame, &message{})
	s.ErrorIs(err, merr.ErrFrameInvalid)
	s.ErrorIs(err, crypto.ErrInvalidMAC)
}

func (s *CodecSuite) TestEncryptionMustMatch() {
	plain := s.newCodec()
	sealed := s.newCodec(WithEncryptor(s.newEncryptor()))

	frame, err := plain.Marshal(smallMessage())
	s.Require().NoError(err)
	_, err = sealed.Unmarshal(frame, &message{})
	s.ErrorIs(err, merr.ErrFrameInvalid)

	frame, err = sealed.Marshal(smallMessage())
	s.Require().NoError(err)
	_, err = plain.Unmarshal(frame, &message{})
	s.ErrorIs(err, merr.ErrFrameInvalid)
}

func (s *CodecSuite) TestJSONSerializer() {
	c := s.newCodec(WithSerializer(serializer.JSONSerializer{}))
	frame, err := c.Marshal(smallMessage())
	s.Require().NoError(err)
	s.Contains(string(frame), `"Body":"hi"`)

	out := &message{}
	_, err = c.Unmarshal(frame, out)
	s.Require().NoError(err)
	s.Equal(smallMessage(), out)
}

func (s *CodecSuite) TestDecodeHeaderOnly() {
	c := s.newCodec()
	frame, err := c.Marshal(smallMessage())
	s.Require().NoError(err)
	h, err := c.Decode(bytes.NewReader(frame), nil)
	s.Require().NoError(err)
	s.Equal(FormatVersion.Major, h.Version().Major)
}

func (s *CodecSuite) TestInvalidArguments() {
	c := s.newCodec()
	_, err := c.Marshal(nil)
	s.ErrorIs(err, merr.ErrParameterMissing)

	cfg := DefaultConfig()
	cfg.Compression = "lz4"
	_, err = New(WithConfig(cfg))
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func (s *CodecSuite) TestWriteFailure() {
	c := s.newCodec()
	err := c.Encode(brokenWriter{}, smallMessage())
	s.ErrorIs(err, merr.ErrStream)
	s.ErrorIs(err, io.ErrClosedPipe)
}

func (s *CodecSuite) TestLoadConfig() {
	path := filepath.Join(s.T().TempDir(), "config.yaml")
	content := "codec:\n  maxFrameSize: 1024\n  compression: snappy\n"
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	s.Require().NoError(err)
	s.Equal(uint32(1024), cfg.MaxFrameSize)
	s.Equal("snappy", cfg.Compression)
	s.Equal(DefaultConfig().CompressThreshold, cfg.CompressThreshold)

	_, err = LoadConfig(filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.Error(err)
}

func TestCodec(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}
