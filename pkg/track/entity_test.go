package track

import "testing"

func TestCode_Same_PayloadString(t *testing.T) {
	a := Code{Value: "https://example.com", Descriptor: []byte{1, 2, 3}}
	b := Code{Value: "https://example.com", Descriptor: []byte{9, 9, 9}}

	// Equal non-empty payload strings win even with different descriptors.
	if !a.Same(b) {
		t.Error("Expected codes with equal payload strings to be the same entity")
	}

	c := Code{Value: "https://other.example", Descriptor: []byte{1, 2, 3}}
	if a.Same(c) {
		t.Error("Expected codes with different payload strings to differ")
	}
}

func TestCode_Same_DescriptorFallback(t *testing.T) {
	a := Code{Value: "", Descriptor: []byte{0xAA, 0xBB}}
	b := Code{Value: "", Descriptor: []byte{0xAA, 0xBB}}
	c := Code{Value: "", Descriptor: []byte{0xCC}}

	if !a.Same(b) {
		t.Error("Expected empty-payload codes with equal descriptors to be the same entity")
	}
	if a.Same(c) {
		t.Error("Expected empty-payload codes with different descriptors to differ")
	}
}

func TestCode_Same_EmptyEverything(t *testing.T) {
	a := Code{}
	b := Code{}

	// No payload and no descriptor means there is nothing to match on.
	if a.Same(b) {
		t.Error("Expected codes with no payload and no descriptor to never match")
	}
}

func TestCode_Same_MixedEmptyPayload(t *testing.T) {
	withValue := Code{Value: "payload", Descriptor: []byte{1}}
	without := Code{Value: "", Descriptor: []byte{1}}

	// One empty payload string forces the descriptor comparison.
	if !withValue.Same(without) {
		t.Error("Expected descriptor fallback when one payload string is empty")
	}
}

func TestFace_Same(t *testing.T) {
	a := Face{ID: 7}
	b := Face{ID: 7, Roll: 0.4, HasRoll: true}
	c := Face{ID: 8}

	if !a.Same(b) {
		t.Error("Expected faces with equal IDs to be the same entity")
	}
	if a.Same(c) {
		t.Error("Expected faces with different IDs to differ")
	}
}
