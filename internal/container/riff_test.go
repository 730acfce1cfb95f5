package container

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestParseRIFFHeader_Valid(t *testing.T) {
	data := make([]byte, 20)
	binary.LittleEndian.PutUint32(data[0:4], FourCCRIFF)
	binary.LittleEndian.PutUint32(data[4:8], 100) // file size
	binary.LittleEndian.PutUint32(data[8:12], FourCCVPRD)

	hdr, n, err := ParseRIFFHeader(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != RIFFHeaderSize {
		t.Fatalf("consumed %d bytes, want %d", n, RIFFHeaderSize)
	}
	if hdr.FileSize != 100 {
		t.Fatalf("file size = %d, want 100", hdr.FileSize)
	}
}

func TestParseRIFFHeader_TooShort(t *testing.T) {
	_, _, err := ParseRIFFHeader([]byte{0, 1, 2})
	if err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestParseRIFFHeader_BadRIFF(t *testing.T) {
	data := make([]byte, 12)
	copy(data[0:4], "JUNK")
	_, _, err := ParseRIFFHeader(data)
	if err != ErrInvalidRIFF {
		t.Fatalf("expected ErrInvalidRIFF, got %v", err)
	}
}

func TestParseRIFFHeader_BadSignature(t *testing.T) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], FourCCRIFF)
	binary.LittleEndian.PutUint32(data[4:8], 100)
	copy(data[8:12], "WEBP")
	_, _, err := ParseRIFFHeader(data)
	if err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestPutRIFFHeader(t *testing.T) {
	data := make([]byte, RIFFHeaderSize)
	PutRIFFHeader(data, 40)
	hdr, _, err := ParseRIFFHeader(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hdr.FileSize != 44 {
		t.Fatalf("file size = %d, want 44", hdr.FileSize)
	}
}

func TestReadChunkHeader(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], FourCCPRED)
	binary.LittleEndian.PutUint32(data[4:8], 42)

	fourcc, size, err := ReadChunkHeader(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fourcc != FourCCPRED {
		t.Fatalf("fourcc = 0x%08x, want PRED", fourcc)
	}
	if size != 42 {
		t.Fatalf("size = %d, want 42", size)
	}

	if _, _, err := ReadChunkHeader(data[:7]); err != ErrTruncated {
		t.Fatalf("short header: expected ErrTruncated, got %v", err)
	}
}

func TestPaddedSize(t *testing.T) {
	tests := []struct{ in, want uint32 }{
		{0, 0}, {1, 2}, {2, 2}, {7, 8}, {100, 100},
	}
	for _, tt := range tests {
		if got := PaddedSize(tt.in); got != tt.want {
			t.Errorf("PaddedSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFourCCString(t *testing.T) {
	for _, s := range []string{"RIFF", "VPRD", "HEAD", "PRED", "XCOL", "RESI"} {
		fcc := FourCC(s[0], s[1], s[2], s[3])
		if got := FourCCString(fcc); got != s {
			t.Errorf("FourCCString(FourCC(%q)) = %q", s, got)
		}
	}
}

func TestWriteReadChunk(t *testing.T) {
	for _, payload := range [][]byte{nil, {1}, {1, 2}, {1, 2, 3}} {
		var buf bytes.Buffer
		c := Chunk{FourCC: FourCCXCOL, Payload: payload}
		if err := WriteChunk(&buf, c); err != nil {
			t.Fatalf("WriteChunk: %v", err)
		}
		if uint32(buf.Len()) != ChunkSize(c) {
			t.Fatalf("wrote %d bytes, ChunkSize = %d", buf.Len(), ChunkSize(c))
		}
		got, err := ReadChunk(&buf)
		if err != nil {
			t.Fatalf("ReadChunk: %v", err)
		}
		if got.FourCC != c.FourCC || !bytes.Equal(got.Payload, payload) {
			t.Errorf("ReadChunk = %s %v, want %s %v",
				FourCCString(got.FourCC), got.Payload, FourCCString(c.FourCC), payload)
		}
	}
}

func TestReadChunk_Truncated(t *testing.T) {
	data := make([]byte, 10)
	binary.LittleEndian.PutUint32(data[0:4], FourCCRESI)
	binary.LittleEndian.PutUint32(data[4:8], 16)
	if _, err := ReadChunk(bytes.NewReader(data)); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}
