package compositor

import (
	"image"
	"testing"
)

func TestDefault(t *testing.T) {
	want := Transform{OffsetX: 0, OffsetY: 0, ScalePercent: 85, Flipped: false}
	if got := Default(); got != want {
		t.Errorf("Default() = %+v, want %+v", got, want)
	}
}

func TestZoomFloor(t *testing.T) {
	got := Zoom(Default(), -1000)
	if got.ScalePercent != MinScalePercent {
		t.Errorf("ScalePercent = %d, want %d", got.ScalePercent, MinScalePercent)
	}
	got = Zoom(got, -5)
	if got.ScalePercent != MinScalePercent {
		t.Errorf("ScalePercent after second zoom = %d, want %d", got.ScalePercent, MinScalePercent)
	}
}

func TestZoomNoCeiling(t *testing.T) {
	got := Zoom(Default(), 10000)
	if got.ScalePercent != 10085 {
		t.Errorf("ScalePercent = %d, want 10085", got.ScalePercent)
	}
}

func TestNudgeUnbounded(t *testing.T) {
	got := Nudge(Nudge(Default(), -5000, 7), 3, -10)
	if got.OffsetX != -4997 || got.OffsetY != -3 {
		t.Errorf("offset = (%d, %d), want (-4997, -3)", got.OffsetX, got.OffsetY)
	}
}

func TestResetAfterAnySequence(t *testing.T) {
	tr := Default()
	tr = Nudge(tr, 12, -4)
	tr = Zoom(tr, -200)
	tr = Flip(tr)
	tr = Zoom(tr, 35)
	tr = Nudge(tr, 1, 1)
	if tr == Default() {
		t.Fatal("sequence should have changed the transform")
	}
	if got := Reset(); got != (Transform{0, 0, 85, false}) {
		t.Errorf("Reset() = %+v", got)
	}
}

func TestFlipToggles(t *testing.T) {
	tr := Flip(Default())
	if !tr.Flipped {
		t.Fatal("first flip should mirror")
	}
	if Flip(tr).Flipped {
		t.Error("second flip should restore")
	}
}

func TestRecomputeFallsBackToDefault(t *testing.T) {
	st := Recompute(Default(), Source{})
	if st.Image != DefaultSilhouette {
		t.Errorf("Image = %q, want default", st.Image)
	}
	if st.Size != "85%" {
		t.Errorf("Size = %q", st.Size)
	}
	if st.Position != "calc(50% + 0px) calc(50% + 0px)" {
		t.Errorf("Position = %q", st.Position)
	}
	if st.Transform != "" {
		t.Errorf("Transform = %q, want empty", st.Transform)
	}
}

func TestRecomputeSourcePriority(t *testing.T) {
	src := Source{DataURL: "data:image/png;base64,AAAA", URL: "https://example.com/bird.png"}
	if got := Recompute(Default(), src).Image; got != src.DataURL {
		t.Errorf("upload should win, got %q", got)
	}
	src = Source{URL: "  https://example.com/bird.png "}
	if got := Recompute(Default(), src).Image; got != "https://example.com/bird.png" {
		t.Errorf("typed URL should be used, got %q", got)
	}
}

func TestRecomputeFlippedAndOffset(t *testing.T) {
	tr := Flip(Nudge(Default(), -3, 8))
	st := Recompute(tr, Source{})
	if st.Transform != "scaleX(-1)" {
		t.Errorf("Transform = %q", st.Transform)
	}
	if st.Position != "calc(50% + -3px) calc(50% + 8px)" {
		t.Errorf("Position = %q", st.Position)
	}
}

func TestSourceLastWriteWins(t *testing.T) {
	src := Source{}.WithURL("https://a/b.png").WithUpload("data:x")
	if src.URL != "" || src.DataURL != "data:x" {
		t.Errorf("upload should clear url: %+v", src)
	}
	src = src.WithURL("https://c/d.png")
	if src.DataURL != "" || src.URL != "https://c/d.png" {
		t.Errorf("url should clear upload: %+v", src)
	}
}

func TestLabels(t *testing.T) {
	if got := Default().PositionLabel(); got != "0, 0" {
		t.Errorf("PositionLabel = %q", got)
	}
	if got := Nudge(Default(), 5, -2).PositionLabel(); got != "5px, -2px" {
		t.Errorf("PositionLabel = %q", got)
	}
	if got := Zoom(Default(), 5).SizeLabel(); got != "90%" {
		t.Errorf("SizeLabel = %q", got)
	}
}

func TestPlacement(t *testing.T) {
	layer := image.Pt(200, 300)
	img := image.Pt(100, 50)

	r := Placement(Transform{ScalePercent: 50}, layer, img, 1)
	if r != image.Rect(50, 125, 150, 175) {
		t.Errorf("centered placement = %v", r)
	}

	r = Placement(Transform{OffsetX: 10, OffsetY: -5, ScalePercent: 50}, layer, img, 2)
	if r != image.Rect(70, 115, 170, 165) {
		t.Errorf("offset placement = %v", r)
	}
}
