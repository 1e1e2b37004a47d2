package beat

import "testing"

func TestDetectorOff(t *testing.T) {
	d := NewDetector()
	if d.Mode() != Off {
		t.Fatalf("default mode = %v, want Off", d.Mode())
	}
	if change := d.Observe(0, 5.0, 5.0, 5.0); change != nil {
		t.Errorf("Off mode fired %+v", change)
	}
}

func TestHardCut1BassTrigger(t *testing.T) {
	d := NewDetector(WithMode(HardCut1))

	// Quiet frames warm the envelope without firing.
	for i := 0; i < 20; i++ {
		if change := d.Observe(float64(i)/60, 0.1, 0.1, 0.1); change != nil {
			t.Fatalf("quiet frame %d fired", i)
		}
	}

	// A bass spike well above the running average fires.
	change := d.Observe(1.0, 5.0, 0.1, 0.1)
	if change == nil {
		t.Fatal("bass spike did not fire")
	}
	if !change.Random() {
		t.Errorf("HardCut1 requested %q, want random", change.Specific)
	}
}

func TestMinimumIntervalExactlyOneTrigger(t *testing.T) {
	// Sustained loud bass at 60 Hz fires exactly once within the interval.
	d := NewDetector(WithMode(HardCut1))

	triggers := 0
	for i := 0; i < 10; i++ {
		if change := d.Observe(float64(i)/60, 5.0, 0, 0); change != nil {
			triggers++
		}
	}
	if triggers != 1 {
		t.Errorf("triggers = %d, want 1", triggers)
	}
}

func TestMinimumIntervalElapses(t *testing.T) {
	d := NewDetector(WithMode(HardCut1)) // 0.2 s floor

	if d.Observe(0, 5.0, 0, 0) == nil {
		t.Fatal("first spike did not fire")
	}
	if d.Observe(0.1, 5.0, 0, 0) != nil {
		t.Fatal("second spike fired inside the interval")
	}
	if d.Observe(0.25, 5.0, 0, 0) == nil {
		t.Fatal("spike after the interval did not fire")
	}
}

func TestMinimumIntervalHoldsForExtremePath(t *testing.T) {
	d := NewDetector(WithMode(HardCut4)) // 3 s floor, extreme treble path

	if d.Observe(0, 0, 0, 9.0) == nil {
		t.Fatal("extreme spike did not fire")
	}
	for i := 1; i < 60; i++ {
		if d.Observe(float64(i)*0.01, 0, 0, 9.0) != nil {
			t.Fatal("extreme path bypassed the minimum interval")
		}
	}
}

func TestHardCut6SpecialPreset(t *testing.T) {
	d := NewDetector(WithMode(HardCut6), WithSpecialPreset("Bass/WHITE.milk"))

	// Moderate bass spike requests a random preset.
	change := d.Observe(0, 2.0, 0, 0)
	if change == nil || !change.Random() {
		t.Fatalf("moderate spike = %+v, want random", change)
	}

	// Let the envelope settle, then hit the extreme ratio.
	for i := 0; i < 100; i++ {
		d.Observe(1.0+float64(i)/60, 1.0, 0, 0)
	}
	change = d.Observe(10.0, 50.0, 0, 0)
	if change == nil {
		t.Fatal("extreme bass did not fire")
	}
	if change.Specific != "Bass/WHITE.milk" {
		t.Errorf("extreme bass requested %q, want special preset", change.Specific)
	}
}

func TestTrebleModesIgnoreBass(t *testing.T) {
	d := NewDetector(WithMode(HardCut2))
	if change := d.Observe(0, 9.0, 0, 0); change != nil {
		t.Error("treble mode fired on bass")
	}
	if change := d.Observe(1.0, 0, 0, 9.0); change == nil {
		t.Error("treble mode did not fire on treble")
	}
}

func TestModeCycling(t *testing.T) {
	d := NewDetector()
	order := []Mode{HardCut1, HardCut2, HardCut3, HardCut4, HardCut5, HardCut6, Off}
	for _, want := range order {
		d.NextMode()
		if d.Mode() != want {
			t.Fatalf("cycled to %v, want %v", d.Mode(), want)
		}
	}
}

func TestReset(t *testing.T) {
	d := NewDetector(WithMode(HardCut1))
	d.Observe(0, 5.0, 0, 0)
	d.Reset()
	if d.Frame() != 0 {
		t.Errorf("frame after reset = %d", d.Frame())
	}
	// After reset the interval gate is clear again.
	if d.Observe(0, 5.0, 0, 0) == nil {
		t.Error("detector did not fire after reset")
	}
}
