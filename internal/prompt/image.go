package prompt

import (
	"strings"

	"github.com/varsilias/ollama-studio/pkg/types"
)

// DefaultImagePrompt is used when the prompt box is left empty.
const DefaultImagePrompt = "a sunset over mountains"

func Image(prompt, model string) (types.GenerationRequest, error) {
	if err := requireModel(model); err != nil {
		return types.GenerationRequest{}, err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = DefaultImagePrompt
	}
	return types.GenerationRequest{
		Model:    strings.TrimSpace(model),
		Messages: []types.Message{{Role: types.RoleUser, Content: prompt}},
		Modality: types.ModalityImage,
	}, nil
}
