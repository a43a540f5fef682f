package stage

import (
	"testing"
)

func TestLoadFrames_Valid(t *testing.T) {
	raw := `{"frames":[{"frame_id":1,"title_cn":"开场","voiceover_script_cn":"旁白","visual_description_cn":"画面","img2vid_motion_prompt_en":"slow pan"}]}`
	env, err := LoadFrames(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.Frames) != 1 || env.Frames[0].FrameID != 1 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestLoadFrames_Empty(t *testing.T) {
	env, err := LoadFrames("")
	if err != nil {
		t.Fatalf("unexpected error for empty input: %v", err)
	}
	if len(env.Frames) != 0 {
		t.Fatalf("expected empty envelope for empty input")
	}
}

func TestLoadFrames_Invalid(t *testing.T) {
	_, err := LoadFrames("{invalid json")
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
