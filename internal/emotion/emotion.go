package emotion

import (
	"fmt"
	"strings"
)

// Mood is the reduced emotion vocabulary the catalog and recommender
// operate on.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodNeutral Mood = "neutral"
)

// NativeLabel is a raw class name emitted by the emotion classifier.
type NativeLabel string

const (
	LabelAngry    NativeLabel = "angry"
	LabelDisgust  NativeLabel = "disgust"
	LabelFear     NativeLabel = "fear"
	LabelHappy    NativeLabel = "happy"
	LabelSad      NativeLabel = "sad"
	LabelSurprise NativeLabel = "surprise"
	LabelNeutral  NativeLabel = "neutral"
)

// NativeLabels lists the classifier's output classes in the order of its
// probability vector. Index i of a prediction corresponds to NativeLabels[i].
var NativeLabels = []NativeLabel{
	LabelAngry,
	LabelDisgust,
	LabelFear,
	LabelHappy,
	LabelSad,
	LabelSurprise,
	LabelNeutral,
}

// SupportedMoods lists every mood the catalog understands.
var SupportedMoods = []Mood{MoodHappy, MoodSad, MoodNeutral}

// moodByLabel maps every native label to exactly one mood. The table must
// stay total over NativeLabels; TestNormalizeTotality enforces this.
var moodByLabel = map[NativeLabel]Mood{
	LabelAngry:    MoodSad,
	LabelDisgust:  MoodSad,
	LabelFear:     MoodSad,
	LabelHappy:    MoodHappy,
	LabelSad:      MoodSad,
	LabelSurprise: MoodHappy,
	LabelNeutral:  MoodNeutral,
}

// Normalize maps a native classifier label onto a mood. A label outside the
// native set means the classifier and the mapping table have drifted apart;
// that is reported as an error so callers can log it loudly and fall back
// to neutral.
func Normalize(label NativeLabel) (Mood, error) {
	mood, ok := moodByLabel[NativeLabel(strings.ToLower(string(label)))]
	if !ok {
		return MoodNeutral, fmt.Errorf("unknown native label %q: classifier output and mapping table are out of sync", label)
	}
	return mood, nil
}

// IsSupported reports whether s names a mood the catalog understands.
// The compare is case-insensitive to match how songs are stored.
func IsSupported(s string) bool {
	for _, m := range SupportedMoods {
		if strings.EqualFold(string(m), s) {
			return true
		}
	}
	return false
}

// moodByGenre assigns a listening mood to scanned songs that carry no
// explicit mood tag. Unlisted genres default to neutral.
var moodByGenre = map[string]Mood{
	"dance":        MoodHappy,
	"disco":        MoodHappy,
	"pop":          MoodHappy,
	"funk":         MoodHappy,
	"reggae":       MoodHappy,
	"ska":          MoodHappy,
	"blues":        MoodSad,
	"soul":         MoodSad,
	"gothic":       MoodSad,
	"slow rock":    MoodSad,
	"ballad":       MoodSad,
	"ambient":      MoodNeutral,
	"classical":    MoodNeutral,
	"jazz":         MoodNeutral,
	"instrumental": MoodNeutral,
}

// FromGenre guesses a mood for a song from its genre tag.
func FromGenre(genre string) Mood {
	if mood, ok := moodByGenre[strings.ToLower(strings.TrimSpace(genre))]; ok {
		return mood
	}
	return MoodNeutral
}
