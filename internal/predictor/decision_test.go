package predictor

import "testing"

func TestParseDecision_ValidResponse(t *testing.T) {
	response := `{
		"direction": "UP",
		"confidence": 95,
		"duration": "30-45 seconds",
		"rationale": "Momentum aligned with volume.",
		"riskFactors": ["High volatility", "Thin order book"]
	}`

	d, err := ParseDecision(response)
	if err != nil {
		t.Fatalf("ParseDecision failed: %v", err)
	}

	if d.Direction != DirectionUp {
		t.Errorf("direction = %s, want UP", d.Direction)
	}
	if d.Confidence != 95 {
		t.Errorf("confidence = %d, want 95", d.Confidence)
	}
	if d.Duration != "30-45 seconds" {
		t.Errorf("duration = %q", d.Duration)
	}
	if len(d.RiskFactors) != 2 {
		t.Errorf("riskFactors = %v", d.RiskFactors)
	}
	if !d.Actionable() {
		t.Error("UP should be actionable")
	}
}

func TestParseDecision_ConfidenceClamped(t *testing.T) {
	tests := []struct {
		name       string
		confidence string
		want       int
	}{
		{name: "below floor", confidence: "42", want: 90},
		{name: "above ceiling", confidence: "100", want: 98},
		{name: "fractional rounds", confidence: "94.6", want: 95},
		{name: "in range", confidence: "93", want: 93},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := `{"direction":"DOWN","confidence":` + tt.confidence + `,"duration":"10-15 seconds","rationale":"x","riskFactors":["a","b"]}`
			d, err := ParseDecision(response)
			if err != nil {
				t.Fatalf("ParseDecision failed: %v", err)
			}
			if d.Confidence != tt.want {
				t.Errorf("confidence = %d, want %d", d.Confidence, tt.want)
			}
		})
	}
}

func TestParseDecision_MarkdownFencesStripped(t *testing.T) {
	response := "```json\n{\"direction\":\"NEUTRAL\",\"confidence\":92,\"duration\":\"1-2 minutes\",\"rationale\":\"mixed\",\"riskFactors\":[\"a\",\"b\"]}\n```"

	d, err := ParseDecision(response)
	if err != nil {
		t.Fatalf("ParseDecision failed: %v", err)
	}
	if d.Direction != DirectionNeutral {
		t.Errorf("direction = %s, want NEUTRAL", d.Direction)
	}
	if d.Actionable() {
		t.Error("NEUTRAL must not be actionable")
	}
}

func TestParseDecision_InvalidDurationReplaced(t *testing.T) {
	response := `{"direction":"UP","confidence":95,"duration":"2 hours","rationale":"x","riskFactors":["a","b"]}`

	d, err := ParseDecision(response)
	if err != nil {
		t.Fatalf("ParseDecision failed: %v", err)
	}
	if d.Duration != DefaultDuration {
		t.Errorf("duration = %q, want default %q", d.Duration, DefaultDuration)
	}
}

func TestParseDecision_LowercaseDirectionNormalized(t *testing.T) {
	response := `{"direction":"down","confidence":91,"duration":"15-20 seconds","rationale":"x","riskFactors":["a","b"]}`

	d, err := ParseDecision(response)
	if err != nil {
		t.Fatalf("ParseDecision failed: %v", err)
	}
	if d.Direction != DirectionDown {
		t.Errorf("direction = %s, want DOWN", d.Direction)
	}
}

func TestParseDecision_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "not json", response: "the market looks bullish"},
		{name: "empty", response: ""},
		{name: "bad direction", response: `{"direction":"SIDEWAYS","confidence":95,"duration":"10-15 seconds","rationale":"x","riskFactors":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDecision(tt.response); err == nil {
				t.Error("expected error")
			}
		})
	}
}
