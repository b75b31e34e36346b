package client

import (
	"context"

	"github.com/menta2k/ckd-scanner/pkg/types"
)

// VisionClient sends one instruction plus one image to a multimodal model and
// returns the raw text it produced
type VisionClient interface {
	GenerateContent(ctx context.Context, prompt string, img types.EncodedImage) (string, error)
}
