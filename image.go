package aistudio

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// MaxSourceImageSize is the largest local file accepted as a source image
const MaxSourceImageSize = 5 << 20

// EncodeImageFile reads a local image and returns it as a data URI suitable
// for GenerationRequest.SourceImage
func EncodeImageFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &ValidationError{Field: "source_image", Message: "failed to read image: " + err.Error()}
	}
	if info.Size() > MaxSourceImageSize {
		return "", &ValidationError{Field: "source_image", Message: fmt.Sprintf("image is %d bytes, limit is 5MB", info.Size())}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ValidationError{Field: "source_image", Message: "failed to read image: " + err.Error()}
	}
	return EncodeImage(data)
}

// EncodeImage returns data as a data URI. The payload must sniff as an image.
func EncodeImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", &ValidationError{Field: "source_image", Message: "image is empty"}
	}
	if len(data) > MaxSourceImageSize {
		return "", &ValidationError{Field: "source_image", Message: fmt.Sprintf("image is %d bytes, limit is 5MB", len(data))}
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", &ValidationError{Field: "source_image", Message: "not an image: " + contentType}
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
