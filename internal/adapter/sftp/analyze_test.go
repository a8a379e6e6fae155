package sftp

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestAnalyzeUploadHashesPayload(t *testing.T) {
	data := []byte("hello world\n")
	result := analyzeUpload("/tmp/notes.txt", data)

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), result.SHA256)
	assert.Equal(t, "text/plain", result.ClaimedMIME)
	assert.False(t, result.FormatMismatch)
}

func TestAnalyzeUploadDetectsDisguisedPayload(t *testing.T) {
	// PNG magic bytes hiding behind a harmless extension.
	result := analyzeUpload("/tmp/invoice.txt", pngHeader)

	assert.Equal(t, "text/plain", result.ClaimedMIME)
	assert.Equal(t, "image/png", result.DetectedMIME)
	assert.True(t, result.FormatMismatch)
}

func TestAnalyzeUploadUnknownExtension(t *testing.T) {
	result := analyzeUpload("/tmp/payload.xyz", []byte("whatever"))

	assert.Empty(t, result.ClaimedMIME)
	assert.False(t, result.FormatMismatch)
}

func TestMimeFromExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/dropper.exe", "application/x-executable"},
		{"/tmp/install.sh", "application/x-shellscript"},
		{"/tmp/miner.BIN", "application/octet-stream"},
		{"/tmp/archive.tar", "application/x-tar"},
		{"/tmp/noextension", ""},
		{"/tmp/strange.xyz", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mimeFromExtension(tt.path), tt.path)
	}
}

func TestShannonEntropy(t *testing.T) {
	assert.Zero(t, shannonEntropy(nil))
	assert.Zero(t, shannonEntropy(bytes.Repeat([]byte{0x41}, 1000)))

	// One of each byte value is exactly 8 bits per byte.
	uniform := make([]byte, 256)
	for i := range uniform {
		uniform[i] = byte(i)
	}
	require.InDelta(t, 8.0, shannonEntropy(uniform), 0.001)

	// English text sits well below the packed/encrypted threshold.
	text := []byte("the quick brown fox jumps over the lazy dog")
	assert.Less(t, shannonEntropy(text), highEntropyThreshold)
}
