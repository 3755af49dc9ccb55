package emotion

import "testing"

func TestNormalizeTotality(t *testing.T) {
	for _, label := range NativeLabels {
		mood, err := Normalize(label)
		if err != nil {
			t.Errorf("Normalize(%q) returned error: %v", label, err)
			continue
		}
		if !IsSupported(string(mood)) {
			t.Errorf("Normalize(%q) = %q, not a supported mood", label, mood)
		}
	}
}

func TestNormalizeMapping(t *testing.T) {
	tests := []struct {
		label NativeLabel
		want  Mood
	}{
		{LabelAngry, MoodSad},
		{LabelDisgust, MoodSad},
		{LabelFear, MoodSad},
		{LabelHappy, MoodHappy},
		{LabelSad, MoodSad},
		{LabelSurprise, MoodHappy},
		{LabelNeutral, MoodNeutral},
		{NativeLabel("Angry"), MoodSad}, // case-insensitive input
	}

	for _, tt := range tests {
		got, err := Normalize(tt.label)
		if err != nil {
			t.Errorf("Normalize(%q) returned error: %v", tt.label, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestNormalizeUnknownLabel(t *testing.T) {
	mood, err := Normalize("bored")
	if err == nil {
		t.Error("Expected error for label outside the native set")
	}
	if mood != MoodNeutral {
		t.Errorf("Expected neutral fallback for unknown label, got %q", mood)
	}
}

func TestIsSupported(t *testing.T) {
	for _, s := range []string{"happy", "sad", "neutral", "Happy", "NEUTRAL"} {
		if !IsSupported(s) {
			t.Errorf("Expected %q to be supported", s)
		}
	}
	for _, s := range []string{"angry", "surprise", ""} {
		if IsSupported(s) {
			t.Errorf("Expected %q to be unsupported", s)
		}
	}
}

func TestFromGenre(t *testing.T) {
	tests := []struct {
		genre string
		want  Mood
	}{
		{"Dance", MoodHappy},
		{"blues", MoodSad},
		{"  Jazz ", MoodNeutral},
		{"speedcore", MoodNeutral}, // unlisted genre
		{"", MoodNeutral},
	}

	for _, tt := range tests {
		if got := FromGenre(tt.genre); got != tt.want {
			t.Errorf("FromGenre(%q) = %q, want %q", tt.genre, got, tt.want)
		}
	}
}
