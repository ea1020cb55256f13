package notify

import "testing"

func TestMessageRoundTrip(t *testing.T) {
	msg := NewMessage("Transaksi Baru", "Berhasil menambahkan Belanja sebesar Rp15.000")
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := MessageFromJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != msg.Title || got.Body != msg.Body {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, msg)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp should survive the round trip")
	}
}

func TestMessageFromJSONInvalid(t *testing.T) {
	if _, err := MessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
