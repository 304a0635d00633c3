package nn

import (
	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// DenoisingMLP predicts a denoised action sequence from a noisy one,
// conditioned on an observation vector and a diffusion step scalar.
//
// The noisy sequence is flattened, concatenated with the observation and
// the sinusoidal step embedding, passed through an MLP with the given
// hidden sizes, and reshaped back to a sequence:
//
//	[U | y | emb(t)] -> hidden.. -> num_steps * action_dim
//
// All inputs accept arbitrary leading batch dimensions, which are
// flattened to a single batch axis internally and restored on the output.
type DenoisingMLP[B tensor.Backend] struct {
	actionDim int
	obsDim    int
	numSteps  int
	timeEmb   *PositionalEmbedding[B]
	net       *MLP[B]
}

// NewDenoisingMLP creates a denoising MLP with seeded initialization.
//
//   - actionDim: dimension of a single action
//   - obsDim: dimension of the conditioning observation
//   - numSteps: length of the action sequence
//   - hidden: hidden layer sizes of the underlying MLP
func NewDenoisingMLP[B tensor.Backend](actionDim, obsDim, numSteps int, hidden []int, rng *RNG, backend B) *DenoisingMLP[B] {
	flatDim := numSteps * actionDim

	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, flatDim+obsDim+timeEmbedDim)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, flatDim)

	return &DenoisingMLP[B]{
		actionDim: actionDim,
		obsDim:    obsDim,
		numSteps:  numSteps,
		timeEmb:   NewPositionalEmbedding[B](timeEmbedDim, backend),
		net:       NewMLP(sizes, rng, backend),
	}
}

// Forward denoises the action sequence.
//
//	actions: [.., num_steps, action_dim]
//	obs:     [.., obs_dim]
//	step:    [.., 1]
//
// Returns [.., num_steps, action_dim].
func (d *DenoisingMLP[B]) Forward(actions, obs, step *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	lead := denoiseBatchShape(actions, obs, step, d.actionDim, d.obsDim, d.numSteps)
	flatDim := d.numSteps * d.actionDim

	// Collapse leading batch dims to a single axis.
	flatActions := actions.Reshape(-1, flatDim)
	flatObs := obs.Reshape(-1, d.obsDim)
	emb := d.timeEmb.Forward(step).Reshape(-1, timeEmbedDim)

	x := tensor.Cat([]*tensor.Tensor[float32, B]{flatActions, flatObs, emb}, 1)
	out := d.net.Forward(x)

	outShape := append(lead.Clone(), d.numSteps, d.actionDim)
	return out.Reshape(outShape...)
}

// ActionDim returns the per-step action dimension.
func (d *DenoisingMLP[B]) ActionDim() int { return d.actionDim }

// ObsDim returns the observation dimension.
func (d *DenoisingMLP[B]) ObsDim() int { return d.obsDim }

// NumSteps returns the action sequence length.
func (d *DenoisingMLP[B]) NumSteps() int { return d.numSteps }

// Parameters returns the parameters of the underlying MLP.
func (d *DenoisingMLP[B]) Parameters() []*Parameter[B] {
	return d.net.Parameters()
}

// StateDict returns the underlying MLP parameters under a "net." prefix.
func (d *DenoisingMLP[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeStateDict(stateDict, "net", d.net.StateDict())
	return stateDict
}

// LoadStateDict loads the underlying MLP parameters.
func (d *DenoisingMLP[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return d.net.LoadStateDict(subStateDict(stateDict, "net"))
}
