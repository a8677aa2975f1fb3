package gemini

// Model identifiers for the Gemini speech-capable preview models.
const (
	ModelFlash = "gemini-2.5-flash-preview-tts"
	ModelPro   = "gemini-2.5-pro-preview-tts"
)

// DefaultVoice is the voice used when the caller does not pick one.
const DefaultVoice = "Zephyr"

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID               string
	DisplayName      string
	SupportsThinking bool
}

// Models returns the selectable models in display order.
func Models() []ModelInfo {
	return []ModelInfo{
		{
			ID:               ModelFlash,
			DisplayName:      "Gemini 2.5 Flash (fast, lower cost)",
			SupportsThinking: true,
		},
		{
			ID:               ModelPro,
			DisplayName:      "Gemini 2.5 Pro (highest quality)",
			SupportsThinking: true,
		},
	}
}

// IsKnownModel reports whether id names one of the supported models.
func IsKnownModel(id string) bool {
	for _, model := range Models() {
		if model.ID == id {
			return true
		}
	}

	return false
}

// Voices returns the prebuilt voice names accepted by the speech API.
func Voices() []string {
	return []string{
		"Zephyr", "Puck", "Charon", "Kore", "Fenrir", "Leda",
		"Orus", "Aoede", "Callirrhoe", "Autonoe", "Enceladus", "Iapetus",
		"Umbriel", "Algieba", "Despina", "Erinome", "Algenib", "Rasalgethi",
		"Laomedeia", "Achernar", "Alnilam", "Schedar", "Gacrux", "Pulcherrima",
		"Achird", "Zubenelgenubi", "Vindemiatrix", "Sadachbia", "Sadaltager", "Sulafat",
	}
}

// IsKnownVoice reports whether name is one of the prebuilt voices.
func IsKnownVoice(name string) bool {
	for _, voice := range Voices() {
		if voice == name {
			return true
		}
	}

	return false
}
