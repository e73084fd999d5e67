package ai

// Request carries everything one generation call needs. Size and AspectRatio
// use the wire values the API expects, not the user-facing names.
type Request struct {
	Model       string
	Prompt      string
	Size        string
	AspectRatio string
}

// Image is a single generated image.
type Image struct {
	Data     []byte
	MimeType string
}

// Result is the parsed provider response.
type Result struct {
	Images []Image
}

// sizes maps resolution tiers to the image sizes the API accepts.
var sizes = map[string]string{
	"low":    "1K",
	"medium": "2K",
	"high":   "4K",
}

// ratios maps user-facing aspect ratio names to API values.
var ratios = map[string]string{
	"square":    "1:1",
	"tall":      "9:16",
	"wide":      "16:9",
	"portrait":  "3:4",
	"landscape": "4:3",
}

func SizeForTier(tier string) (string, bool) {
	size, ok := sizes[tier]
	return size, ok
}

func RatioForName(name string) (string, bool) {
	ratio, ok := ratios[name]
	return ratio, ok
}

func Tiers() []string {
	return []string{"low", "medium", "high"}
}

func Ratios() []string {
	return []string{"square", "tall", "wide", "portrait", "landscape"}
}

// NewRequest builds a request from user-facing tier and ratio names,
// falling back to medium/square for unknown values.
func NewRequest(model, prompt, tier, ratio string) Request {
	size, ok := sizes[tier]
	if !ok {
		size = sizes["medium"]
	}
	ar, ok := ratios[ratio]
	if !ok {
		ar = ratios["square"]
	}
	return Request{
		Model:       model,
		Prompt:      prompt,
		Size:        size,
		AspectRatio: ar,
	}
}
