package evdevsource

import (
	"testing"

	"github.com/char5742/inputreader/internal/rawevent"
)

func TestTestBit(t *testing.T) {
	bits := []byte{0b00000100, 0b00000001}
	if !testBit(bits, 2) {
		t.Fatal("expected bit 2 set")
	}
	if testBit(bits, 1) {
		t.Fatal("expected bit 1 clear")
	}
	if !testBit(bits, 8) {
		t.Fatal("expected bit 8 set")
	}
	if testBit(bits, 100) {
		t.Fatal("out-of-range bit must read as clear, not panic")
	}
}

func TestDecodeInputEvent(t *testing.T) {
	b := make([]byte, inputEventSize)
	// sec=1, usec=2, type=evKey(1), code=0x14a(BTN_TOUCH), value=1
	b[0] = 1
	b[8] = 2
	b[16] = 0x01
	b[18] = 0x4a
	b[19] = 0x01
	b[20] = 1

	ev := decodeInputEvent(b)
	if ev.Sec != 1 || ev.Usec != 2 {
		t.Fatalf("timestamp mismatch: %+v", ev)
	}
	if ev.Type != evKey || ev.Code != 0x14a || ev.Value != 1 {
		t.Fatalf("decode mismatch: %+v", ev)
	}
}

func TestTranslate(t *testing.T) {
	syn := inputEvent{Type: evSyn, Code: 1}
	out, ok := translate(3, syn)
	if !ok || out.Type != rawevent.Syn || out.DeviceID != 3 {
		t.Fatalf("syn translate mismatch: %+v ok=%v", out, ok)
	}

	key := inputEvent{Type: evKey, Code: 30, Value: 1}
	out, ok = translate(3, key)
	if !ok || out.KeyCode != 30 || out.Value != 1 {
		t.Fatalf("key translate mismatch: %+v", out)
	}

	unknown := inputEvent{Type: 0xff}
	if _, ok := translate(3, unknown); ok {
		t.Fatal("unknown event type must be rejected")
	}
}

func TestHasAlphaKeys(t *testing.T) {
	none := make([]byte, keyBitsSize)
	if hasAlphaKeys(none) {
		t.Fatal("empty key bitmap must not report alpha keys")
	}

	withQ := make([]byte, keyBitsSize)
	withQ[0x10/8] |= 1 << (0x10 % 8) // KEY_Q
	if !hasAlphaKeys(withQ) {
		t.Fatal("KEY_Q present should be detected as an alpha key")
	}
}
