package interpret

import (
	"strings"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

// videoExtensions are the URL suffixes treated as video when classifying a
// bare media URL from the transport layer.
var videoExtensions = []string{".mp4", ".mov", ".avi", ".webm"}

// DetectMedia classifies the first image or video attachment as photo or
// video. Returns nil when no attachment qualifies.
func DetectMedia(attachments []models.Attachment) *models.MediaInfo {
	for _, a := range attachments {
		ct := strings.ToLower(a.ContentType)
		switch {
		case strings.HasPrefix(ct, "image/"):
			return &models.MediaInfo{Type: models.MediaTypePhoto, URL: a.URL}
		case strings.HasPrefix(ct, "video/"):
			return &models.MediaInfo{Type: models.MediaTypeVideo, URL: a.URL}
		}
	}
	return nil
}

// MediaFromURL classifies a bare media URL by extension: known video
// extensions map to video, everything else to photo.
func MediaFromURL(url string) *models.MediaInfo {
	if url == "" {
		return nil
	}
	lowered := strings.ToLower(url)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lowered, ext) {
			return &models.MediaInfo{Type: models.MediaTypeVideo, URL: url}
		}
	}
	return &models.MediaInfo{Type: models.MediaTypePhoto, URL: url}
}
