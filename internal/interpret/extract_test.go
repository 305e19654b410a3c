package interpret

import (
	"testing"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

func TestExtractDataFromMessage(t *testing.T) {
	cases := []struct {
		name      string
		message   string
		dataTypes []string
		want      map[string]string
	}{
		{
			name:      "pressure reading",
			message:   "the gauge says 0.8 bar",
			dataTypes: []string{DataTypePressure},
			want:      map[string]string{DataTypePressure: "0.8 bar"},
		},
		{
			name:      "pressure with no unit spacing",
			message:   "1.2bar on the dial",
			dataTypes: []string{DataTypePressure},
			want:      map[string]string{DataTypePressure: "1.2 bar"},
		},
		{
			name:      "temperature",
			message:   "it's about 18 degrees in here",
			dataTypes: []string{DataTypeTemperature},
			want:      map[string]string{DataTypeTemperature: "18"},
		},
		{
			name:      "location",
			message:   "the leak is under the kitchen sink",
			dataTypes: []string{DataTypeLocation},
			want:      map[string]string{DataTypeLocation: "kitchen"},
		},
		{
			name:      "yes answer",
			message:   "  Yes ",
			dataTypes: []string{DataTypeYesNo},
			want:      map[string]string{DataTypeYesNo: "yes"},
		},
		{
			name:      "no answer",
			message:   "nope",
			dataTypes: []string{DataTypeYesNo},
			want:      map[string]string{DataTypeYesNo: "no"},
		},
		{
			name:      "yes_no needs a bare token",
			message:   "yes the kitchen is flooded",
			dataTypes: []string{DataTypeYesNo},
			want:      map[string]string{},
		},
		{
			name:      "multiple types in one message",
			message:   "0.5 bar and freezing in the bathroom",
			dataTypes: []string{DataTypePressure, DataTypeLocation},
			want:      map[string]string{DataTypePressure: "0.5 bar", DataTypeLocation: "bathroom"},
		},
		{
			name:      "nothing extractable",
			message:   "dunno really",
			dataTypes: []string{DataTypePressure, DataTypeTemperature, DataTypeLocation},
			want:      map[string]string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractDataFromMessage(tc.message, tc.dataTypes)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("expected %s=%q, got %q", k, v, got[k])
				}
			}
		})
	}
}

func TestDetectMedia(t *testing.T) {
	photo := models.Attachment{ContentType: "image/jpeg", URL: "http://media/1.jpg"}
	video := models.Attachment{ContentType: "video/mp4", URL: "http://media/2.mp4"}
	audio := models.Attachment{ContentType: "audio/ogg", URL: "http://media/3.ogg"}

	if got := DetectMedia(nil); got != nil {
		t.Errorf("no attachments should yield nil, got %+v", got)
	}
	if got := DetectMedia([]models.Attachment{audio}); got != nil {
		t.Errorf("audio should not classify, got %+v", got)
	}

	got := DetectMedia([]models.Attachment{audio, photo, video})
	if got == nil || got.Type != models.MediaTypePhoto || got.URL != photo.URL {
		t.Errorf("expected first qualifying attachment (photo), got %+v", got)
	}

	got = DetectMedia([]models.Attachment{video})
	if got == nil || got.Type != models.MediaTypeVideo {
		t.Errorf("expected video classification, got %+v", got)
	}
}

func TestMediaFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want models.MediaType
	}{
		{"http://media/clip.mp4", models.MediaTypeVideo},
		{"http://media/CLIP.MOV", models.MediaTypeVideo},
		{"http://media/shot.jpg", models.MediaTypePhoto},
		{"http://media/blob-no-extension", models.MediaTypePhoto},
	}
	for _, tc := range cases {
		got := MediaFromURL(tc.url)
		if got == nil || got.Type != tc.want {
			t.Errorf("MediaFromURL(%q) = %+v, want type %s", tc.url, got, tc.want)
		}
	}

	if got := MediaFromURL(""); got != nil {
		t.Errorf("empty URL should yield nil, got %+v", got)
	}
}
