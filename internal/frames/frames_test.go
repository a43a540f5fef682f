package frames

import "testing"

func TestEnvelopeRoundTrip(t *testing.T) {
	env := NewEnvelope([]Frame{
		{FrameID: 2, Title: "方法", Voiceover: "介绍方法", VisualDescription: "流程图", MotionPrompt: "slow pan"},
		{FrameID: 1, Title: "背景", Voiceover: "介绍背景", VisualDescription: "校园", MotionPrompt: "zoom in"},
	})
	env.Frames[0].ImageFile = "/tmp/images/frame_2.png"

	encoded, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Frames) != 2 {
		t.Fatalf("frames = %d", len(decoded.Frames))
	}
	if decoded.Get(2).ImageFile != "/tmp/images/frame_2.png" {
		t.Fatal("artifact path lost")
	}
}

func TestDecodeEmpty(t *testing.T) {
	env, err := Decode("")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(env.Frames) != 0 {
		t.Fatal("expected empty envelope")
	}
}

func TestSortedOrdersByFrameID(t *testing.T) {
	env := Envelope{Frames: []Artifact{
		{Frame: Frame{FrameID: 3}},
		{Frame: Frame{FrameID: 1}},
		{Frame: Frame{FrameID: 2}},
	}}
	sorted := env.Sorted()
	for i, want := range []int{1, 2, 3} {
		if sorted[i].FrameID != want {
			t.Fatalf("sorted[%d] = %d, want %d", i, sorted[i].FrameID, want)
		}
	}
}

func TestVoicedFiltersAndOrders(t *testing.T) {
	env := Envelope{Frames: []Artifact{
		{Frame: Frame{FrameID: 3}, VoicedFile: "/v/frame_3.mp4"},
		{Frame: Frame{FrameID: 1}, VoicedFile: "/v/frame_1.mp4"},
		{Frame: Frame{FrameID: 2}},
	}}
	voiced := env.Voiced()
	if len(voiced) != 2 {
		t.Fatalf("voiced = %d", len(voiced))
	}
	if voiced[0].FrameID != 1 || voiced[1].FrameID != 3 {
		t.Fatalf("order = %d, %d", voiced[0].FrameID, voiced[1].FrameID)
	}
}

func TestGetMissingFrame(t *testing.T) {
	env := Envelope{}
	if env.Get(9) != nil {
		t.Fatal("expected nil for missing frame")
	}
}
