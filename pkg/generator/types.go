package generator

const (
	UseImageCompression     = true
	ImageCompressionQuality = 90

	inpaintSystemPrompt = "You are an image inpainting engine. " +
		"Repaint only the white region of the mask image on the source image and keep every other pixel unchanged. " +
		"Return exactly one image with the same size as the source."
)

// ImageOutput は Core の内部解析結果
type ImageOutput struct {
	Data     []byte
	MimeType string
	UsedSeed int64
}
