package feed

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
)

func TestDecodeTextEvent(t *testing.T) {
	account := make([]byte, 32)
	account[0] = 7
	data := []byte{1, 2, 3, 4}

	payload := []byte(`{"account":"` + base58.Encode(account) + `","data":"` + base64.StdEncoding.EncodeToString(data) + `","slot":12345}`)

	update, err := decodeTextEvent(payload)
	if err != nil {
		t.Fatal(err)
	}
	if update.AccountID != base58.Encode(account) {
		t.Fatalf("account = %q", update.AccountID)
	}
	if update.Slot != 12345 {
		t.Fatalf("slot = %d", update.Slot)
	}
	if !bytes.Equal(update.Data, data) {
		t.Fatalf("data = %v", update.Data)
	}
}

func TestDecodeTextEventMalformed(t *testing.T) {
	cases := map[string][]byte{
		"not json":       []byte("quote update"),
		"missing fields": []byte(`{"slot":1}`),
		"bad base64":     []byte(`{"account":"abc","data":"%%%","slot":1}`),
	}
	for name, payload := range cases {
		if _, err := decodeTextEvent(payload); err == nil {
			t.Fatalf("%s: expected decode error", name)
		}
	}
}

func TestDecodeBinaryEvent(t *testing.T) {
	account := make([]byte, 32)
	account[31] = 9
	data := []byte{0xaa, 0xbb}

	payload := make([]byte, 0, binaryHeaderSize+len(data))
	payload = append(payload, account...)
	slot := make([]byte, 8)
	binary.LittleEndian.PutUint64(slot, 777)
	payload = append(payload, slot...)
	payload = append(payload, data...)

	update, err := decodeBinaryEvent(payload)
	if err != nil {
		t.Fatal(err)
	}
	if update.AccountID != base58.Encode(account) {
		t.Fatalf("account = %q", update.AccountID)
	}
	if update.Slot != 777 {
		t.Fatalf("slot = %d", update.Slot)
	}
	if !bytes.Equal(update.Data, data) {
		t.Fatalf("data = %v", update.Data)
	}
}

func TestDecodeBinaryEventOwnsItsData(t *testing.T) {
	payload := make([]byte, binaryHeaderSize+1)
	payload[binaryHeaderSize] = 0x42

	update, err := decodeBinaryEvent(payload)
	if err != nil {
		t.Fatal(err)
	}
	payload[binaryHeaderSize] = 0

	if update.Data[0] != 0x42 {
		t.Fatalf("decoded data must not alias the read buffer")
	}
}

func TestDecodeBinaryEventTooShort(t *testing.T) {
	if _, err := decodeBinaryEvent(make([]byte, binaryHeaderSize-1)); err == nil {
		t.Fatalf("short payload must be rejected")
	}
}
