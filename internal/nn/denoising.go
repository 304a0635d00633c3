package nn

import (
	"fmt"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// timeEmbedDim is the dimension of the sinusoidal diffusion-step embedding
// fed to the denoising architectures.
const timeEmbedDim = 16

// denoiseBatchShape validates a denoiser call and returns the leading batch
// shape shared by all three inputs.
//
// Expected shapes, for any leading batch dims "..":
//
//	actions: [.., num_steps, action_dim]
//	obs:     [.., obs_dim]
//	step:    [.., 1]
func denoiseBatchShape[B tensor.Backend](actions, obs, step *tensor.Tensor[float32, B], actionDim, obsDim, numSteps int) tensor.Shape {
	aShape := actions.Shape()
	if len(aShape) < 2 || aShape[len(aShape)-2] != numSteps || aShape[len(aShape)-1] != actionDim {
		panic(fmt.Sprintf("denoiser: expected actions [.., %d, %d], got shape %v", numSteps, actionDim, aShape))
	}
	lead := aShape[:len(aShape)-2]

	oShape := obs.Shape()
	if len(oShape) < 1 || oShape[len(oShape)-1] != obsDim || !oShape[:len(oShape)-1].Equal(lead) {
		panic(fmt.Sprintf("denoiser: expected obs [.., %d] with batch shape %v, got shape %v", obsDim, lead, oShape))
	}

	sShape := step.Shape()
	if len(sShape) < 1 || sShape[len(sShape)-1] != 1 || !sShape[:len(sShape)-1].Equal(lead) {
		panic(fmt.Sprintf("denoiser: expected step [.., 1] with batch shape %v, got shape %v", lead, sShape))
	}

	return lead
}
