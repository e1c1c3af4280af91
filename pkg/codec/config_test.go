package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/bincodec-go/pkg/util/merr"
)

func TestEndianText(t *testing.T) {
	for _, tc := range []struct {
		text string
		want Endian
	}{
		{"big", BigEndian},
		{"BE", BigEndian},
		{" little ", LittleEndian},
		{"le", LittleEndian},
	} {
		var e Endian
		require.NoError(t, e.UnmarshalText([]byte(tc.text)), tc.text)
		assert.Equal(t, tc.want, e)
	}

	var e Endian
	assert.ErrorIs(t, e.UnmarshalText([]byte("middle")), merr.ErrParameterInvalid)

	text, err := LittleEndian.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "little", string(text))

	_, err = Endian(7).MarshalText()
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestPackingText(t *testing.T) {
	var p Packing
	require.NoError(t, p.UnmarshalText([]byte("bits")))
	assert.Equal(t, PackBit, p)
	require.NoError(t, p.UnmarshalText([]byte("Byte")))
	assert.Equal(t, PackByte, p)
	assert.ErrorIs(t, p.UnmarshalText([]byte("nibble")), merr.ErrParameterInvalid)

	text, err := PackBit.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "bit", string(text))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, "big/byte", DefaultConfig().String())
	assert.Equal(t, "little/bit", littleBit.String())

	assert.ErrorIs(t, Config{Endian: 3}.Validate(), merr.ErrParameterInvalid)
	assert.ErrorIs(t, Config{Packing: 3}.Validate(), merr.ErrParameterInvalid)

	_, err := Marshal(uint8(1), Config{Endian: 9})
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = Unmarshal[uint8]([]byte{1}, Config{Packing: 9})
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("yaml key", func(t *testing.T) {
		path := writeFile(t, "codec.yaml", "codec:\n  endian: little\n  packing: bit\n")
		cfg, err := LoadConfig(path, "codec")
		require.NoError(t, err)
		assert.Equal(t, littleBit, cfg)
	})

	t.Run("json whole file", func(t *testing.T) {
		path := writeFile(t, "codec.json", `{"endian": "le", "packing": "byte"}`)
		cfg, err := LoadConfig(path, "")
		require.NoError(t, err)
		assert.Equal(t, littleByte, cfg)
	})

	t.Run("missing field keeps default", func(t *testing.T) {
		path := writeFile(t, "codec.yaml", "codec:\n  packing: bit\n")
		cfg, err := LoadConfig(path, "codec")
		require.NoError(t, err)
		assert.Equal(t, bigBit, cfg)
	})

	t.Run("missing key", func(t *testing.T) {
		path := writeFile(t, "codec.yaml", "other:\n  endian: big\n")
		_, err := LoadConfig(path, "codec")
		assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	})

	t.Run("bad value", func(t *testing.T) {
		path := writeFile(t, "codec.yaml", "codec:\n  endian: middle\n")
		_, err := LoadConfig(path, "codec")
		assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), "codec")
		assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	})
}
