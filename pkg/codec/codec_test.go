package codec

import "testing"

type sampleRecord struct {
	A uint64
	B [4]byte
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := sampleRecord{A: 42, B: [4]byte{1, 2, 3, 4}}
	data, err := Encode("codec.sampleRecord", &in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) < 8 {
		t.Fatalf("encoded record too short: %d bytes", len(data))
	}

	var out sampleRecord
	if err := Decode("codec.sampleRecord", data, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestDecodeRejectsWrongDiscriminator(t *testing.T) {
	in := sampleRecord{A: 1}
	data, err := Encode("codec.sampleRecord", &in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out sampleRecord
	if err := Decode("codec.otherRecord", data, &out); err == nil {
		t.Fatal("expected discriminator mismatch error")
	}
}

func TestDecodeRejectsShortInput(t *testing.T) {
	var out sampleRecord
	if err := Decode("codec.sampleRecord", []byte{1, 2, 3}, &out); err == nil {
		t.Fatal("expected short-record error")
	}
}

func TestDiscriminatorStable(t *testing.T) {
	a := Discriminator("codec.sampleRecord")
	b := Discriminator("codec.sampleRecord")
	if a != b {
		t.Fatal("discriminator is not deterministic")
	}
	if c := Discriminator("codec.otherRecord"); c == a {
		t.Fatal("distinct type names produced the same discriminator")
	}
}
