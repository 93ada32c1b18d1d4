package tiff

import "testing"

func TestOrderFromPrefix(t *testing.T) {
	cases := []struct {
		prefix [2]byte
		want   ByteOrder
		ok     bool
	}{
		{[2]byte{'I', 'I'}, LE, true},
		{[2]byte{'M', 'M'}, BE, true},
		{[2]byte{'X', 'X'}, nil, false},
	}
	for _, c := range cases {
		got, ok := orderFromPrefix(c.prefix)
		if ok != c.ok {
			t.Errorf("orderFromPrefix(%v) ok = %v, want %v", c.prefix, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("orderFromPrefix(%v) = %v, want %v", c.prefix, got, c.want)
		}
	}
}

func TestPrefixFromOrderRoundTrip(t *testing.T) {
	for _, order := range []ByteOrder{LE, BE} {
		prefix := prefixFromOrder(order)
		got, ok := orderFromPrefix(prefix)
		if !ok || got != order {
			t.Errorf("round trip for %v failed: prefix %v, got %v", order, prefix, got)
		}
	}
}

func TestSignedAccessors(t *testing.T) {
	buf := make([]byte, 8)
	putInt16(buf, -1234, LE)
	if got := getInt16(buf, LE); got != -1234 {
		t.Errorf("getInt16 = %d, want -1234", got)
	}
	putInt32(buf, -70000, BE)
	if got := getInt32(buf, BE); got != -70000 {
		t.Errorf("getInt32 = %d, want -70000", got)
	}
	putInt64(buf, -9000000000, LE)
	if got := getInt64(buf, LE); got != -9000000000 {
		t.Errorf("getInt64 = %d, want -9000000000", got)
	}
}

func TestFloatAccessors(t *testing.T) {
	buf := make([]byte, 8)
	putFloat32(buf, 3.5, LE)
	if got := getFloat32(buf, LE); got != 3.5 {
		t.Errorf("getFloat32 = %v, want 3.5", got)
	}
	putFloat64(buf, -2.25, BE)
	if got := getFloat64(buf, BE); got != -2.25 {
		t.Errorf("getFloat64 = %v, want -2.25", got)
	}
}
