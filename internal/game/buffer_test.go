package game

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"
)

func TestNetworkBufferRoundTrip(t *testing.T) {
	b := NewNetworkBuffer(64)
	b.WriteU8(0x03)
	b.WriteU16(0xBEEF)
	b.WriteU32(0xDEADBEEF)
	b.WriteString("driftbot", 20)

	r := NewReadBuffer(b.Bytes())
	if got := r.ReadU8(); got != 0x03 {
		t.Errorf("ReadU8 = %#x", got)
	}
	if got := r.ReadU16(); got != 0xBEEF {
		t.Errorf("ReadU16 = %#x", got)
	}
	if got := r.ReadU32(); got != 0xDEADBEEF {
		t.Errorf("ReadU32 = %#x", got)
	}
	if got := r.ReadString(20); got != "driftbot" {
		t.Errorf("ReadString = %q", got)
	}
	if r.Overrun() {
		t.Error("no read ran past the end")
	}
}

func TestNetworkBufferLittleEndian(t *testing.T) {
	b := NewNetworkBuffer(8)
	b.WriteU16(0x0102)
	if !bytes.Equal(b.Bytes(), []byte{0x02, 0x01}) {
		t.Errorf("u16 encoding = %v, want little-endian", b.Bytes())
	}
}

func TestNetworkBufferOverrun(t *testing.T) {
	r := NewReadBuffer([]byte{0x01})
	_ = r.ReadU8()
	if got := r.ReadU16(); got != 0 {
		t.Errorf("exhausted read should return zero, got %d", got)
	}
	if !r.Overrun() {
		t.Error("overrun flag should latch")
	}
}

func TestNetworkBufferSetByte(t *testing.T) {
	b := NewNetworkBuffer(4)
	b.WriteU32(0)
	b.SetByte(2, 0xAA)
	if b.Bytes()[2] != 0xAA {
		t.Error("SetByte should patch written bytes")
	}
	b.SetByte(9, 0xFF) // out of range: ignored
}

func TestNetworkBufferRoundTripRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v8 := rapid.Uint8().Draw(t, "v8")
		v16 := rapid.Uint16().Draw(t, "v16")
		v32 := rapid.Uint32().Draw(t, "v32")

		b := NewNetworkBuffer(16)
		b.WriteU8(v8)
		b.WriteU16(v16)
		b.WriteU32(v32)

		r := NewReadBuffer(b.Bytes())
		if r.ReadU8() != v8 || r.ReadU16() != v16 || r.ReadU32() != v32 {
			t.Fatalf("round trip mismatch")
		}
	})
}

func TestBatchedRecordRoundTrip(t *testing.T) {
	rec := BatchedRecord{
		PlayerID:   0x105,
		Togglables: 0b010101,
		Direction:  20,
		Timestamp:  123,
		X:          6400,
		Y:          4800,
		VelX:       320,  // 2.0 tiles/s
		VelY:       -240, // -1.5 tiles/s
	}

	b := NewNetworkBuffer(11)
	EncodeBatchedLargeRecord(b, rec)
	if b.Size() != 11 {
		t.Fatalf("large record size = %d, want 11", b.Size())
	}

	got := DecodeBatchedLargeRecord(NewReadBuffer(b.Bytes()))
	if got != rec {
		t.Errorf("round trip = %+v, want %+v", got, rec)
	}
}

func TestBatchedRecordRoundTripRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rec := BatchedRecord{
			PlayerID:   PlayerID(rapid.Uint16Range(0, 0x3FF).Draw(t, "pid")),
			Togglables: StatusFlags(rapid.Uint8Range(0, 0x3F).Draw(t, "togglables")),
			Direction:  rapid.Uint8Range(0, 0x3F).Draw(t, "direction"),
			Timestamp:  rapid.Uint16Range(0, 0x3FF).Draw(t, "timestamp"),
			X:          rapid.Uint16Range(0, 0x3FFF).Draw(t, "x"),
			Y:          rapid.Uint16Range(0, 0x3FFF).Draw(t, "y"),
			VelX:       rapid.Int32Range(-8192, 8191).Draw(t, "velX"),
			VelY:       rapid.Int32Range(-8192, 8191).Draw(t, "velY"),
		}

		b := NewNetworkBuffer(11)
		EncodeBatchedLargeRecord(b, rec)
		got := DecodeBatchedLargeRecord(NewReadBuffer(b.Bytes()))
		if got != rec {
			t.Fatalf("round trip = %+v, want %+v", got, rec)
		}

		// Small records carry no togglables and an 8-bit id.
		small := rec
		small.PlayerID &= 0xFF
		small.Togglables = 0
		sb := NewNetworkBuffer(10)
		EncodeBatchedSmallRecord(sb, small)
		if sb.Size() != 10 {
			t.Fatalf("small record size = %d, want 10", sb.Size())
		}
		if got := DecodeBatchedSmallRecord(NewReadBuffer(sb.Bytes())); got != small {
			t.Fatalf("small round trip = %+v, want %+v", got, small)
		}
	})
}

func TestItemSetPackRoundTrip(t *testing.T) {
	s := ItemSet{Shields: true, Bursts: 3, Repels: 4, Thors: 1, Bricks: 2, Decoys: 5, Rockets: 6, Portals: 7}
	if got := UnpackItemSet(s.Pack()); got != s {
		t.Errorf("item set round trip = %+v, want %+v", got, s)
	}
}
