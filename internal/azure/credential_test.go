package azure

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeToken(t *testing.T) {
	got, err := EncodeToken("abc")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte(":abc")), got)
	assert.Equal(t, "OmFiYw==", got)
}

func TestEncodeTokenMissing(t *testing.T) {
	_, err := EncodeToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "<unset>", MaskToken(""))
	assert.Equal(t, "****", MaskToken("short"))
	assert.Equal(t, "****wxyz", MaskToken("abcdefghijklmnopqrstuvwxyz"))
}
