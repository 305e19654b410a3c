package interpret

import (
	"regexp"
	"strings"
)

// Data type names recognized by ExtractDataFromMessage.
const (
	DataTypePressure    = "pressure"
	DataTypeTemperature = "temperature"
	DataTypeLocation    = "location"
	DataTypeYesNo       = "yes_no"
)

var (
	pressureRegex    = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*bar`)
	temperatureRegex = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(degrees?|celsius|c)\b`)
)

// commonRooms is the keyword list used for location extraction.
var commonRooms = []string{
	"kitchen", "bathroom", "bedroom", "living room", "hallway",
	"utility room", "toilet", "garage", "loft", "garden",
}

var (
	yesTokens = map[string]bool{"yes": true, "yeah": true, "yep": true, "yup": true, "y": true, "sure": true, "ok": true, "okay": true, "definitely": true}
	noTokens  = map[string]bool{"no": true, "nope": true, "nah": true, "n": true, "not": true, "never": true}
)

// ExtractDataFromMessage performs regex-only structured extraction for known
// field types. It is a cheaper, GenAI-free extraction path usable
// independently of full interpretation.
func ExtractDataFromMessage(message string, dataTypes []string) map[string]string {
	extracted := make(map[string]string)
	lowered := strings.ToLower(message)

	for _, dt := range dataTypes {
		switch dt {
		case DataTypePressure:
			if m := pressureRegex.FindStringSubmatch(message); m != nil {
				extracted[DataTypePressure] = m[1] + " bar"
			}
		case DataTypeTemperature:
			if m := temperatureRegex.FindStringSubmatch(message); m != nil {
				extracted[DataTypeTemperature] = m[1]
			}
		case DataTypeLocation:
			for _, room := range commonRooms {
				if strings.Contains(lowered, room) {
					extracted[DataTypeLocation] = room
					break
				}
			}
		case DataTypeYesNo:
			token := strings.TrimSpace(lowered)
			if yesTokens[token] {
				extracted[DataTypeYesNo] = "yes"
			} else if noTokens[token] {
				extracted[DataTypeYesNo] = "no"
			}
		}
	}
	return extracted
}
