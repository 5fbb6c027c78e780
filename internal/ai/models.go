package ai

type ModelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// DefaultModel is used when neither configuration nor the request names one.
const DefaultModel = "allenai/molmo-2-8b:free"

var availableModels = []ModelInfo{
	{ID: "allenai/molmo-2-8b:free", Name: "Molmo 2 8B", Provider: "AllenAI"},
	{ID: "xiaomi/mimo-v2-flash:free", Name: "Mimo V2 Flash", Provider: "Xiaomi"},
	{ID: "mistralai/devstral-2512:free", Name: "Devstral 2512", Provider: "Mistral AI"},
	{ID: "openai/gpt-oss-120b:free", Name: "GPT OSS 120B", Provider: "OpenAI"},
	{ID: "tngtech/deepseek-r1t2-chimera:free", Name: "DeepSeek R1T2 Chimera", Provider: "TNG Tech"},
}

// AvailableModels returns a copy of the model catalogue.
func AvailableModels() []ModelInfo {
	out := make([]ModelInfo, len(availableModels))
	copy(out, availableModels)
	return out
}
