package views

import (
	"context"
	"strings"
	"testing"

	"github.com/rewired-gh/tickerdesk/internal/models"
)

func points(scores ...float64) []models.ScoreHistoryPoint {
	out := make([]models.ScoreHistoryPoint, len(scores))
	for i, s := range scores {
		out[i] = models.ScoreHistoryPoint{Score: s, Price: 1}
	}
	return out
}

func TestProjectSparklineScaling(t *testing.T) {
	pts := ProjectSparkline(points(0, 5, 10), SparklineWidth, SparklineHeight)
	if len(pts) != 3 {
		t.Fatalf("got %d points", len(pts))
	}
	if pts[0].Y != SparklineHeight {
		t.Errorf("score 0 y = %v, want %v", pts[0].Y, SparklineHeight)
	}
	if pts[1].Y != SparklineHeight/2 {
		t.Errorf("score 5 y = %v, want %v", pts[1].Y, SparklineHeight/2)
	}
	if pts[2].Y != 0 {
		t.Errorf("score 10 y = %v, want 0", pts[2].Y)
	}
	if pts[0].X != 0 || pts[2].X != SparklineWidth {
		t.Errorf("x range = %v..%v", pts[0].X, pts[2].X)
	}
}

func TestProjectSparklineKeepsLastTen(t *testing.T) {
	scores := make([]float64, 15)
	for i := range scores {
		scores[i] = float64(i % 11)
	}
	pts := ProjectSparkline(points(scores...), SparklineWidth, SparklineHeight)
	if len(pts) != MaxSparklinePoints {
		t.Fatalf("got %d points, want %d", len(pts), MaxSparklinePoints)
	}
	// the first plotted point is scores[5] == 5
	if pts[0].Y != SparklineHeight/2 {
		t.Errorf("first plotted y = %v", pts[0].Y)
	}
}

func TestProjectSparklineEdgeCases(t *testing.T) {
	if pts := ProjectSparkline(nil, SparklineWidth, SparklineHeight); len(pts) != 0 {
		t.Errorf("empty history projected to %v", pts)
	}
	pts := ProjectSparkline(points(7), SparklineWidth, SparklineHeight)
	if len(pts) != 1 || pts[0].X != SparklineWidth/2 {
		t.Errorf("single point = %+v", pts)
	}
	// out-of-range input is not clamped
	pts = ProjectSparkline(points(12), SparklineWidth, SparklineHeight)
	if pts[0].Y >= 0 {
		t.Errorf("score 12 y = %v, want negative", pts[0].Y)
	}
}

func TestPolyline(t *testing.T) {
	got := Polyline([]Point{{0, 40}, {60, 20}, {120, 0}})
	if got != "0,40 60,20 120,0" {
		t.Errorf("Polyline = %q", got)
	}
	svg := SparklineSVG(points(0, 10))
	if !strings.Contains(svg, `points="0,40 120,0"`) {
		t.Errorf("svg missing polyline: %s", svg)
	}
}

func TestDetectThesisDrift(t *testing.T) {
	tests := []struct {
		name    string
		history []models.ScoreHistoryPoint
		want    bool
	}{
		{"no history", nil, false},
		{"single point", []models.ScoreHistoryPoint{{Score: 8, Price: 1}}, false},
		{"score down price up 20%", []models.ScoreHistoryPoint{{Score: 9, Price: 1}, {Score: 8, Price: 1.2}}, true},
		{"score down price up exactly 10%", []models.ScoreHistoryPoint{{Score: 9, Price: 1}, {Score: 8, Price: 1.1}}, false},
		{"score flat price up", []models.ScoreHistoryPoint{{Score: 8, Price: 1}, {Score: 8, Price: 2}}, false},
		{"score up price up", []models.ScoreHistoryPoint{{Score: 7, Price: 1}, {Score: 8, Price: 2}}, false},
		{"score down price down", []models.ScoreHistoryPoint{{Score: 9, Price: 2}, {Score: 8, Price: 1}}, false},
		{"only last two count", []models.ScoreHistoryPoint{{Score: 9, Price: 1}, {Score: 5, Price: 5}, {Score: 6, Price: 6}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectThesisDrift(tt.history); got != tt.want {
				t.Errorf("DetectThesisDrift = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSparklineGlyphs(t *testing.T) {
	got := Sparkline(points(0, 10))
	if got != "▁█" {
		t.Errorf("Sparkline = %q", got)
	}
}

func TestScoreHistoryChartRendersDrift(t *testing.T) {
	client := newFakeClient()
	client.history = []models.ScoreHistoryPoint{{Score: 9, Price: 0.38}, {Score: 8.5, Price: 0.44}}

	chart := NewScoreHistoryChart(client, 10)
	chart.SetTicker("kuya")
	if err := chart.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := chart.Render(80)
	if !strings.Contains(out, "THESIS DRIFT") || !strings.Contains(out, "KUYA") {
		t.Errorf("render missing drift banner or ticker:\n%s", out)
	}
}
