package compressor

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

func payload() []byte {
	return bytes.Repeat([]byte("externalizor payload "), 64)
}

func TestRoundTrip(t *testing.T) {
	for _, a := range []Algorithm{AlgorithmNone, AlgorithmZstd, AlgorithmSnappy} {
		t.Run(a.String(), func(t *testing.T) {
			c, err := New(a)
			require.NoError(t, err)
			if z, ok := c.(*ZstdCompressor); ok {
				defer z.Close()
			}
			assert.Equal(t, a, c.Algorithm())

			src := payload()
			packed, err := c.Compress(nil, src)
			require.NoError(t, err)
			if a != AlgorithmNone {
				assert.Less(t, len(packed), len(src))
			}

			plain, err := c.Decompress(nil, packed)
			require.NoError(t, err)
			assert.Equal(t, src, plain)
		})
	}
}

func TestDecompressGarbage(t *testing.T) {
	z, err := NewZstdCompressor(WithZstdConcurrency(1))
	require.NoError(t, err)
	defer z.Close()
	_, err = z.Decompress(nil, []byte("not zstd"))
	assert.Error(t, err)

	_, err = SnappyCompressor{}.Decompress(nil, []byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestClosedZstd(t *testing.T) {
	z, err := NewZstdCompressor()
	require.NoError(t, err)
	z.Close()
	z.Close()
	_, err = z.Compress(nil, payload())
	assert.Error(t, err)
	_, err = z.Decompress(nil, payload())
	assert.Error(t, err)
}

func TestParseAlgorithm(t *testing.T) {
	cases := map[string]Algorithm{
		"":        AlgorithmNone,
		"none":    AlgorithmNone,
		"ZSTD":    AlgorithmZstd,
		" snappy": AlgorithmSnappy,
	}
	for name, want := range cases {
		got, err := ParseAlgorithm(name)
		assert.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseAlgorithm("lz4")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = New(Algorithm(42))
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	assert.Equal(t, "unknown", Algorithm(42).String())
}

func TestZstdLevels(t *testing.T) {
	src := payload()
	for _, level := range []zstd.EncoderLevel{zstd.SpeedFastest, zstd.SpeedBestCompression} {
		z, err := NewZstdCompressor(WithZstdLevel(level), WithZstdConcurrency(2))
		require.NoError(t, err)
		packed, err := z.Compress(nil, src)
		require.NoError(t, err)
		plain, err := z.Decompress(nil, packed)
		require.NoError(t, err)
		assert.Equal(t, src, plain, level.String())
		z.Close()
	}

	z, err := NewZstdCompressor()
	require.NoError(t, err)
	defer z.Close()
	packed, err := z.Compress(nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, packed)
	plain, err := z.Decompress(nil, packed)
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestMaxDecodedSize(t *testing.T) {
	zeros := make([]byte, 4<<20)
	for _, a := range []Algorithm{AlgorithmZstd, AlgorithmSnappy} {
		t.Run(a.String(), func(t *testing.T) {
			enc, err := New(a)
			require.NoError(t, err)
			limited, err := New(a, WithMaxDecodedSize(1<<20))
			require.NoError(t, err)
			for _, c := range []Compressor{enc, limited} {
				if z, ok := c.(*ZstdCompressor); ok {
					defer z.Close()
				}
			}

			packed, err := enc.Compress(nil, zeros)
			require.NoError(t, err)
			_, err = limited.Decompress(nil, packed)
			assert.ErrorIs(t, err, ErrDecodedTooLarge)

			small, err := enc.Compress(nil, payload())
			require.NoError(t, err)
			plain, err := limited.Decompress(nil, small)
			require.NoError(t, err)
			assert.Equal(t, payload(), plain)
		})
	}
}
