package audio

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeMP3Payload is a byte pattern with no recognizable tag signature at the
// head or the tail of the file.
func fakeMP3Payload() []byte {
	payload := make([]byte, 512)
	payload[0] = 0xFF
	payload[1] = 0xFB
	for i := 2; i < len(payload); i++ {
		payload[i] = byte(i % 251)
	}
	return payload
}

func writeFixture(t *testing.T, dir string, name string, payload []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir fixture dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// id3TagLength returns the size of a leading ID3v2 tag including its header.
func id3TagLength(t *testing.T, data []byte) int {
	t.Helper()
	if len(data) < 10 || string(data[:3]) != "ID3" {
		t.Fatalf("expected ID3v2 header, got %q", data[:min(len(data), 10)])
	}
	size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
	return 10 + size
}
