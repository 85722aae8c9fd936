package model

// DetectRequest is the JSON body of POST /detect.
type DetectRequest struct {
	AudioBase64 string `json:"audio_base64" binding:"required"`
	AudioFormat string `json:"audio_format"` // defaults to mp3
	Language    string `json:"language"`     // defaults to english
	UserID      string `json:"user_id"`
}

// DetectionResponse is the success payload of POST /detect.
type DetectionResponse struct {
	Status          string  `json:"status"`
	DetectionID     string  `json:"detection_id"`
	Classification  string  `json:"classification"`
	ConfidenceScore float64 `json:"confidence_score"`
	Language        string  `json:"language"`
	Timestamp       string  `json:"timestamp"`
	Message         string  `json:"message"`
}

// PredictResponse is the compact payload of the multipart POST /predict.
type PredictResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
