package clock

import (
	"testing"
	"time"
)

func TestNow_ReturnsCurrentTime(t *testing.T) {
	before := time.Now()
	result := Now()
	after := time.Now()

	if result.Before(before) || result.After(after) {
		t.Errorf("Now() returned %v, expected between %v and %v", result, before, after)
	}
}

func TestMockClock_Now(t *testing.T) {
	mockTime := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := NewMockClock(mockTime)

	result := mock.Now()

	if !result.Equal(mockTime) {
		t.Errorf("MockClock.Now() returned %v, expected exactly %v", result, mockTime)
	}
}

func TestMockClock_Advance(t *testing.T) {
	mockTime := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := NewMockClock(mockTime)

	mock.Advance(2 * time.Hour)

	expected := mockTime.Add(2 * time.Hour)
	if !mock.Now().Equal(expected) {
		t.Errorf("after Advance, Now() returned %v, expected %v", mock.Now(), expected)
	}
}

func TestMockClock_Set(t *testing.T) {
	mock := NewMockClock(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	newTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.Set(newTime)

	if !mock.Now().Equal(newTime) {
		t.Errorf("after Set, Now() returned %v, expected %v", mock.Now(), newTime)
	}
}

func TestMockClock_Since(t *testing.T) {
	mockTime := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := NewMockClock(mockTime)
	earlier := mockTime.Add(-30 * time.Minute)

	if got := mock.Since(earlier); got != 30*time.Minute {
		t.Errorf("Since returned %v, expected 30m", got)
	}
}

func TestMockClock_Until(t *testing.T) {
	mockTime := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := NewMockClock(mockTime)
	later := mockTime.Add(45 * time.Minute)

	if got := mock.Until(later); got != 45*time.Minute {
		t.Errorf("Until returned %v, expected 45m", got)
	}
}

func TestRealClock_Since(t *testing.T) {
	c := &RealClock{}
	start := c.Now()
	if d := c.Since(start); d < 0 {
		t.Errorf("Since returned negative duration %v", d)
	}
}
