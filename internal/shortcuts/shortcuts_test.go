package shortcuts

import "testing"

// TestShortcutRepeat covers spec.md §8 scenario 6: registering
// KEY(a)+KEY(b) and holding both with repeat_delay=2, repeat_rate=2
// fires on a 2-tick cadence while held, and stops on release. The
// poller re-asserts a Press event for every currently-held key each
// tick (see internal/keyboard), so ProcessKey is driven once per key
// per tick exactly as shortcuts.rs's process_key expects; the very
// first same-tick press (current_tick == last_update_tick == 0, both
// their zero values) does not itself fire — entry.last_update_tick
// only diverges from current_tick once Update() has advanced it at
// least once, a quirk carried over verbatim from shortcuts.rs.
func TestShortcutRepeat(t *testing.T) {
	s := New(2, 2)

	var fires int
	require := func(err error) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require(s.Register([]string{"KEY(a)", "KEY(b)"}, func() error {
		fires++
		return nil
	}))

	// Press both keys at tick 0.
	require(s.ProcessKey("KEY(a)", true))
	require(s.ProcessKey("KEY(b)", true))
	if fires != 0 {
		t.Fatalf("expected no fire at tick 0 (current_tick == last_update_tick), got %d", fires)
	}

	// Hold for 10 more ticks, reasserting both keys pressed each tick.
	// Fires land every 2 ticks once delta_ticks reaches the configured
	// delay/rate of 2: ticks 2, 4, 6, 8, 10.
	for tick := 1; tick <= 10; tick++ {
		s.Update()
		require(s.ProcessKey("KEY(a)", true))
		require(s.ProcessKey("KEY(b)", true))
	}
	if fires != 5 {
		t.Fatalf("expected 5 fires over a 10-tick hold at delay=rate=2, got %d", fires)
	}

	// Release one key: the chord is no longer fully pressed, so no
	// further repeats fire even as ticks continue.
	require(s.ProcessKey("KEY(a)", false))
	for tick := 0; tick < 4; tick++ {
		s.Update()
	}
	if fires != 5 {
		t.Fatalf("release should not have produced extra fires, got %d", fires)
	}
}

func TestShortcutRegisterRejectsMalformedKeyName(t *testing.T) {
	s := New(2, 2)
	err := s.Register([]string{"a"}, func() error { return nil })
	if err == nil {
		t.Fatal("expected an error for a key name not matching KEY(...)")
	}
}

func TestShortcutDoesNotFireUntilAllKeysPressed(t *testing.T) {
	s := New(2, 2)
	var fires int
	if err := s.Register([]string{"KEY(a)", "KEY(b)"}, func() error {
		fires++
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.ProcessKey("KEY(a)", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fires != 0 {
		t.Fatalf("expected no fire with only one key pressed, got %d", fires)
	}
}
