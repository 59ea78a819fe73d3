package views

import "testing"

func TestConfidenceColorAndWidth(t *testing.T) {
	tests := []struct {
		confidence float64
		tone       Tone
		width      string
	}{
		{82.3, ToneGreen, "82.3%"},
		{75, ToneGreen, "75%"},
		{60, ToneYellow, "60%"},
		{45.5, ToneOrange, "45.5%"},
		{12, ToneRed, "12%"},
		{120, ToneGreen, "100%"},
		{-3, ToneRed, "0%"},
	}
	for _, tt := range tests {
		if got := ConfidenceColor(tt.confidence); got != tt.tone {
			t.Errorf("ConfidenceColor(%v) = %s, want %s", tt.confidence, got, tt.tone)
		}
		if got := ConfidenceBarWidth(tt.confidence); got != tt.width {
			t.Errorf("ConfidenceBarWidth(%v) = %q, want %q", tt.confidence, got, tt.width)
		}
	}
}

func TestScoreColorUsesTenPointScale(t *testing.T) {
	if got := ScoreColor(8.2); got != ToneGreen {
		t.Errorf("ScoreColor(8.2) = %s", got)
	}
	if got := ScoreColor(3); got != ToneRed {
		t.Errorf("ScoreColor(3) = %s", got)
	}
}
