package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"voiceguard/internal/audio"
	"voiceguard/internal/config"
	"voiceguard/internal/detect"
	"voiceguard/internal/model"
	"voiceguard/internal/storage"
	"voiceguard/internal/utils"
)

var (
	cfg    *config.Config
	engine *detect.Engine
)

// Init wires the handlers to the loaded configuration and the detection
// engine. Must be called before RegisterRoutes.
func Init(c *config.Config, e *detect.Engine) {
	cfg = c
	engine = e
	log.Printf("[API] detection engine initialized (scorer: %s)", e.ScorerName())
}

// RegisterRoutes registers all endpoints on the gin engine.
func RegisterRoutes(r *gin.Engine) {
	r.GET("/", root)
	r.GET("/health", healthCheck)

	authed := r.Group("/", RequireAPIKey(func() string { return cfg.APIKey }))
	{
		authed.POST("/detect", detectVoice)
		authed.POST("/predict", predictVoice)
		authed.GET("/detections/:detection_id", getDetection)
		authed.GET("/supported-languages", supportedLanguages)
		authed.GET("/stats", getStats)
	}
}

// root returns a minimal liveness payload (no auth).
func root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "running"})
}

// healthCheck returns server health status (no auth).
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{
		Status:  "healthy",
		Version: config.Version,
	})
}

// detectVoice classifies a base64-encoded audio payload.
func detectVoice(c *gin.Context) {
	var req model.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "audio_base64 is required")
		return
	}

	if req.AudioFormat == "" {
		req.AudioFormat = string(audio.FormatMP3)
	}
	if req.Language == "" {
		req.Language = string(detect.LanguageEnglish)
	}

	lang, ok := detect.ParseLanguage(req.Language)
	if !ok {
		utils.Error(c, http.StatusBadRequest,
			"Unsupported language. Supported: "+strings.Join(detect.LanguageStrings(), ", "))
		return
	}

	format, ok := audio.ParseFormat(req.AudioFormat)
	if !ok {
		utils.Error(c, http.StatusBadRequest,
			fmt.Sprintf("unsupported audio format %q. Supported: %s", req.AudioFormat, formatList()))
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid base64 encoding: "+err.Error())
		return
	}
	if int64(len(data)) > cfg.MaxAudioBytes {
		utils.Error(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("audio file too large (max %dMB)", cfg.MaxAudioBytes/(1024*1024)))
		return
	}
	if int64(len(data)) < cfg.MinAudioBytes {
		utils.Error(c, http.StatusBadRequest, "audio file too small")
		return
	}

	result, err := engine.Detect(audio.Buffer{Data: data, Format: format}, lang)
	if err != nil {
		storage.RecordFailure()
		code, detail := engineErrorStatus(err)
		log.Printf("[Detect] pipeline error (format=%s language=%s size=%d): %v",
			format, lang, len(data), err)
		utils.Error(c, code, detail)
		return
	}

	confidence := round3(result.Confidence)
	id := storage.Record(storage.Detection{
		Classification: string(result.Label),
		Confidence:     confidence,
		AILikelihood:   result.AILikelihood,
		Language:       string(lang),
		Format:         string(format),
		SizeBytes:      int64(len(data)),
		UserID:         req.UserID,
	})

	log.Printf("[Detect] %s: %s (confidence=%.3f likelihood=%.3f language=%s)",
		id, result.Label, confidence, result.AILikelihood, lang)

	c.JSON(http.StatusOK, model.DetectionResponse{
		Status:          "success",
		DetectionID:     id,
		Classification:  string(result.Label),
		ConfidenceScore: confidence,
		Language:        string(lang),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Message: fmt.Sprintf("Audio classified as %s with %.1f%% confidence",
			result.Label, confidence*100),
	})
}

// predictVoice classifies an uploaded file; the format comes from the
// file extension.
func predictVoice(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "file is required")
		return
	}
	if file.Size > cfg.MaxAudioBytes {
		utils.Error(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("audio file too large (max %dMB)", cfg.MaxAudioBytes/(1024*1024)))
		return
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	if ext == "" {
		ext = string(audio.FormatWAV)
	}
	format, ok := audio.ParseFormat(ext)
	if !ok {
		utils.Error(c, http.StatusBadRequest,
			fmt.Sprintf("unsupported audio format %q. Supported: %s", ext, formatList()))
		return
	}

	lang := detect.LanguageEnglish
	if v := c.PostForm("language"); v != "" {
		if lang, ok = detect.ParseLanguage(v); !ok {
			utils.Error(c, http.StatusBadRequest,
				"Unsupported language. Supported: "+strings.Join(detect.LanguageStrings(), ", "))
			return
		}
	}

	src, err := file.Open()
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to read upload: "+err.Error())
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to read upload: "+err.Error())
		return
	}

	result, err := engine.Detect(audio.Buffer{Data: data, Format: format}, lang)
	if err != nil {
		storage.RecordFailure()
		code, detail := engineErrorStatus(err)
		log.Printf("[Predict] pipeline error (%s, %d bytes): %v", file.Filename, len(data), err)
		utils.Error(c, code, detail)
		return
	}

	storage.Record(storage.Detection{
		Classification: string(result.Label),
		Confidence:     round3(result.Confidence),
		AILikelihood:   result.AILikelihood,
		Language:       string(lang),
		Format:         string(format),
		SizeBytes:      file.Size,
	})

	c.JSON(http.StatusOK, model.PredictResponse{
		Label:      string(result.Label),
		Confidence: round3(result.Confidence),
	})
}

// getDetection replays a recorded detection outcome.
func getDetection(c *gin.Context) {
	id := c.Param("detection_id")
	d, ok := storage.Get(id)
	if !ok {
		utils.Error(c, http.StatusNotFound, "detection not found")
		return
	}

	utils.Success(c, gin.H{
		"detection_id":     d.ID,
		"classification":   d.Classification,
		"confidence_score": d.Confidence,
		"language":         d.Language,
		"audio_format":     d.Format,
		"created_at":       d.CreatedAt,
	})
}

// supportedLanguages lists the shared language enumeration.
func supportedLanguages(c *gin.Context) {
	utils.Success(c, gin.H{
		"supported_languages": detect.LanguageStrings(),
	})
}

// getStats reports static limits plus live counters.
func getStats(c *gin.Context) {
	s := storage.Stats()
	utils.Success(c, gin.H{
		"version":             config.Version,
		"supported_languages": detect.LanguageStrings(),
		"supported_formats":   formatStrings(),
		"max_file_size_mb":    cfg.MaxAudioBytes / (1024 * 1024),
		"total_requests":      s.TotalRequests,
		"failed_requests":     s.Failed,
		"by_classification":   s.ByLabel,
		"by_language":         s.ByLanguage,
	})
}

// engineErrorStatus maps engine error kinds to HTTP responses.
func engineErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, detect.ErrUnsupportedLanguage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, audio.ErrCorruptAudio), errors.Is(err, audio.ErrEmptyAudio):
		return http.StatusUnprocessableEntity, "audio processing failed: " + err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func formatStrings() []string {
	out := make([]string, len(audio.SupportedFormats))
	for i, f := range audio.SupportedFormats {
		out[i] = string(f)
	}
	return out
}

func formatList() string {
	return strings.Join(formatStrings(), ", ")
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
