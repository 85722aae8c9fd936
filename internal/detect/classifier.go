package detect

// Label is the binary classification outcome.
type Label string

const (
	LabelAI    Label = "AI_GENERATED"
	LabelHuman Label = "HUMAN"
)

// Result is the final pipeline output: the raw AI-likelihood, the
// thresholded label, and a bounded user-facing confidence.
type Result struct {
	AILikelihood float64
	Label        Label
	Confidence   float64
}

// Classifier thresholds an AI-likelihood into a Result. It is a pure
// function of its configuration.
type Classifier struct {
	threshold float64
	floor     float64
	ceil      float64
}

// NewClassifier creates a Classifier from the injected constants.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		threshold: cfg.Threshold,
		floor:     cfg.ConfidenceFloor,
		ceil:      cfg.ConfidenceCeil,
	}
}

// Classify maps a likelihood to a label and confidence. A likelihood at
// or above the threshold is AI. Confidence scales linearly with the
// distance from the threshold: exactly at the threshold it is the
// floor, and at either extreme it saturates at the ceiling. Out-of-range
// input is clamped, not rejected.
func (c *Classifier) Classify(likelihood float64) Result {
	x := clamp01(likelihood)

	label := LabelHuman
	if x >= c.threshold {
		label = LabelAI
	}

	maxDistance := c.threshold
	if 1-c.threshold > maxDistance {
		maxDistance = 1 - c.threshold
	}

	distance := x - c.threshold
	if distance < 0 {
		distance = -distance
	}

	confidence := c.floor
	if maxDistance > 0 {
		confidence = c.floor + (c.ceil-c.floor)*distance/maxDistance
	}
	if confidence > c.ceil {
		confidence = c.ceil
	}

	return Result{AILikelihood: x, Label: label, Confidence: confidence}
}
