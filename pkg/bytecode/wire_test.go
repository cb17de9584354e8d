package bytecode

import (
	"bytes"
	"testing"
)

func TestMarshalChunkRoundTrip(t *testing.T) {
	c := sampleChunk()

	data, err := MarshalChunk(c)
	if err != nil {
		t.Fatalf("MarshalChunk() error = %v", err)
	}
	got, err := UnmarshalChunk(data)
	if err != nil {
		t.Fatalf("UnmarshalChunk() error = %v", err)
	}
	chunksEqual(t, got, c)
}

func TestMarshalChunkDeterministic(t *testing.T) {
	a, err := MarshalChunk(sampleChunk())
	if err != nil {
		t.Fatalf("MarshalChunk() error = %v", err)
	}
	b, err := MarshalChunk(sampleChunk())
	if err != nil {
		t.Fatalf("MarshalChunk() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("equal chunks encoded to different bytes")
	}
}

func TestUnmarshalChunkRejectsNewerVersion(t *testing.T) {
	c := sampleChunk()
	c.Version = BytecodeVersion + 1
	data, err := MarshalChunk(c)
	if err != nil {
		t.Fatalf("MarshalChunk() error = %v", err)
	}
	if _, err := UnmarshalChunk(data); err == nil {
		t.Error("UnmarshalChunk() accepted a newer version")
	}
}

func TestLoadDetectsEncoding(t *testing.T) {
	c := sampleChunk()

	bin, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	cb, err := MarshalChunk(c)
	if err != nil {
		t.Fatalf("MarshalChunk() error = %v", err)
	}

	for name, data := range map[string][]byte{"binary": bin, "cbor": cb} {
		got, err := Load(data)
		if err != nil {
			t.Errorf("Load(%s) error = %v", name, err)
			continue
		}
		chunksEqual(t, got, c)
	}

	if _, err := Load([]byte{0xFF, 0x00}); err == nil {
		t.Error("Load(garbage) succeeded, want error")
	}
}
