package mapcmd

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"nav-edge/internal/geo"
)

func TestNewCodec(t *testing.T) {
	cmd := UserMarker(geo.GeoPoint{Lat: 1, Lng: 2}, 45)

	enc, err := NewCodec(CodecJSON)
	if err != nil {
		t.Fatalf("json codec: %v", err)
	}
	b, err := enc(cmd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["kind"] != "upsertMarker" {
		t.Errorf("expected kind upsertMarker, got %v", m["kind"])
	}
	if _, ok := m["turn"]; ok {
		t.Errorf("unset fields should be omitted: %s", b)
	}

	enc, err = NewCodec(CodecMsgpack)
	if err != nil {
		t.Fatalf("msgpack codec: %v", err)
	}
	b, err = enc(Zoom(18))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got Command
	if err := msgpack.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != SetZoom || got.Zoom != 18 {
		t.Errorf("unexpected command %+v", got)
	}

	if _, err := NewCodec("xml"); err == nil {
		t.Error("expected error for unknown codec")
	}
}

func TestRecorderLast(t *testing.T) {
	var r Recorder
	_ = r.Publish(context.Background(), Zoom(10), Pan(geo.GeoPoint{Lat: 1}), Zoom(18))
	c, ok := r.Last(SetZoom)
	if !ok || c.Zoom != 18 {
		t.Errorf("expected last zoom 18, got %+v %v", c, ok)
	}
	if _, ok := r.Last(SetHeading); ok {
		t.Error("unexpected heading command")
	}
	r.Reset()
	if len(r.Commands()) != 0 {
		t.Error("expected no commands after reset")
	}
}

func TestCodecKeepsZeroValues(t *testing.T) {
	tests := []struct {
		name  string
		codec string
	}{
		{"json", CodecJSON},
		{"msgpack", CodecMsgpack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewCodec(tt.codec)
			if err != nil {
				t.Fatal(err)
			}
			for _, cmd := range []Command{Heading(0), Zoom(0)} {
				b, err := enc(cmd)
				if err != nil {
					t.Fatalf("encode: %v", err)
				}
				var m map[string]any
				if tt.codec == CodecJSON {
					err = json.Unmarshal(b, &m)
				} else {
					err = msgpack.Unmarshal(b, &m)
				}
				if err != nil {
					t.Fatalf("decode: %v", err)
				}
				field := "heading"
				if cmd.Kind == SetZoom {
					field = "zoom"
				}
				v, ok := m[field]
				if !ok {
					t.Fatalf("%s: expected %s on the wire, got %v", cmd.Kind, field, m)
				}
				if n, ok := v.(float64); ok && n != 0 {
					t.Errorf("%s: expected 0, got %v", cmd.Kind, v)
				}
			}
		})
	}
}
