package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"lms/config"

	"github.com/go-resty/resty/v2"
	"gorm.io/datatypes"
)

// FaceMatchThreshold is the minimum cosine similarity accepted as a match
const FaceMatchThreshold = 0.6

type DetectFaceResponse struct {
	Success    bool      `json:"success"`
	Embedding  []float64 `json:"embedding"`
	Confidence float64   `json:"confidence"`
	Message    string    `json:"message"`
}

type VerifyFaceResponse struct {
	Success    bool    `json:"success"`
	IsMatch    bool    `json:"is_match"`
	Similarity float64 `json:"similarity"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
}

func faceClient() *resty.Client {
	return resty.New().
		SetBaseURL(config.AppConfig.FaceServiceURL).
		SetTimeout(60 * time.Second)
}

// DetectFace sends an image to the face service and returns the extracted
// embedding
func DetectFace(image []byte, filename string) (*DetectFaceResponse, error) {
	var result DetectFaceResponse

	resp, err := faceClient().R().
		SetFileReader("image", filename, bytes.NewReader(image)).
		SetResult(&result).
		Post("/detect-face")
	if err != nil {
		return nil, fmt.Errorf("face service unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("face service returned %s", resp.Status())
	}

	return &result, nil
}

// VerifyFace compares a fresh capture against a stored embedding
func VerifyFace(image []byte, filename string, storedEmbedding datatypes.JSON) (*VerifyFaceResponse, error) {
	embeddingJSON, err := json.Marshal(json.RawMessage(storedEmbedding))
	if err != nil {
		return nil, fmt.Errorf("invalid stored embedding: %w", err)
	}

	var result VerifyFaceResponse

	resp, err := faceClient().R().
		SetFileReader("image", filename, bytes.NewReader(image)).
		SetFormData(map[string]string{"stored_embedding": string(embeddingJSON)}).
		SetResult(&result).
		Post("/verify-face")
	if err != nil {
		return nil, fmt.Errorf("face service unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("face service returned %s", resp.Status())
	}

	return &result, nil
}

// FaceMatchAccepted applies the acceptance rule: the service must have
// processed the capture, report a match, and the similarity must clear the
// threshold. Confidence is reported but never gates the decision.
func FaceMatchAccepted(result *VerifyFaceResponse) bool {
	return result.Success && result.IsMatch && result.Similarity >= FaceMatchThreshold
}
