package address_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadfun/trading-mcp/internal/address"
)

const wrapper = "0xD47Dd1a82dd239688ECE1BA94D86f3D32960C339"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"checksummed", wrapper, wrapper, false},
		{"lowercase", strings.ToLower(wrapper), wrapper, false},
		{"no prefix", strings.ToLower(wrapper[2:]), wrapper, false},
		{"surrounding space", " " + wrapper + " ", wrapper, false},
		{"bad checksum", "0xd47Dd1a82dd239688ECE1BA94D86f3D32960C339", "", true},
		{"too short", "0x1234", "", true},
		{"not hex", "0xZZ7Dd1a82dd239688ECE1BA94D86f3D32960C339", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := address.Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, address.ErrEncoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Hex())
		})
	}
}

func TestChecksum(t *testing.T) {
	got, err := address.Checksum(strings.ToLower(wrapper))
	require.NoError(t, err)
	assert.Equal(t, wrapper, got)

	_, err = address.Checksum("nope")
	assert.ErrorIs(t, err, address.ErrEncoding)
}

func TestIsZero(t *testing.T) {
	assert.True(t, address.IsZero(address.MustParse("0x0000000000000000000000000000000000000000")))
	assert.False(t, address.IsZero(address.MustParse(wrapper)))
}
