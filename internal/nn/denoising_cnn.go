package nn

import (
	"fmt"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// DenoisingCNN is the convolutional counterpart of DenoisingMLP: it
// predicts a denoised action sequence with 1-D convolutions along the step
// axis instead of a fully connected trunk, so parameter count stays flat as
// the sequence grows.
//
// The observation and step embedding are tiled along the step axis as extra
// channels, the stack of same-padded width-3 convolutions (with swish)
// mixes neighboring steps, and a final width-1 projection maps back to
// action channels.
type DenoisingCNN[B tensor.Backend] struct {
	actionDim int
	obsDim    int
	numSteps  int
	timeEmb   *PositionalEmbedding[B]
	convs     []*Conv1D[B]
	proj      *Conv1D[B]
	act       *Swish[B]
	backend   B
}

// NewDenoisingCNN creates a denoising CNN with seeded initialization.
//
//   - actionDim: dimension of a single action (output channels)
//   - obsDim: dimension of the conditioning observation
//   - numSteps: length of the action sequence
//   - channels: channel widths of the convolutional blocks
func NewDenoisingCNN[B tensor.Backend](actionDim, obsDim, numSteps int, channels []int, rng *RNG, backend B) *DenoisingCNN[B] {
	inC := actionDim + obsDim + timeEmbedDim

	convs := make([]*Conv1D[B], 0, len(channels))
	for _, ch := range channels {
		convs = append(convs, NewConv1D(inC, ch, 3, 1, rng, backend))
		inC = ch
	}

	return &DenoisingCNN[B]{
		actionDim: actionDim,
		obsDim:    obsDim,
		numSteps:  numSteps,
		timeEmb:   NewPositionalEmbedding[B](timeEmbedDim, backend),
		convs:     convs,
		proj:      NewConv1D(inC, actionDim, 1, 0, rng, backend),
		act:       NewSwish[B](),
		backend:   backend,
	}
}

// Forward denoises the action sequence.
//
//	actions: [.., num_steps, action_dim]
//	obs:     [.., obs_dim]
//	step:    [.., 1]
//
// Returns [.., num_steps, action_dim].
func (d *DenoisingCNN[B]) Forward(actions, obs, step *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	lead := denoiseBatchShape(actions, obs, step, d.actionDim, d.obsDim, d.numSteps)

	// Collapse leading batch dims to a single axis.
	flatActions := actions.Reshape(-1, d.numSteps, d.actionDim)
	flatObs := obs.Reshape(-1, d.obsDim)
	emb := d.timeEmb.Forward(step).Reshape(-1, timeEmbedDim)

	// Conditioning features, tiled along the step axis as channels.
	cond := tensor.Cat([]*tensor.Tensor[float32, B]{flatObs, emb}, 1)
	x := tensor.Cat([]*tensor.Tensor[float32, B]{flatActions, tileSteps(cond, d.numSteps)}, 2)

	for _, conv := range d.convs {
		x = d.act.Forward(conv.Forward(x))
	}
	x = d.proj.Forward(x)

	outShape := append(lead.Clone(), d.numSteps, d.actionDim)
	return x.Reshape(outShape...)
}

// tileSteps repeats per-batch feature rows along a new step axis:
// [batch, features] -> [batch, steps, features].
func tileSteps[B tensor.Backend](t *tensor.Tensor[float32, B], steps int) *tensor.Tensor[float32, B] {
	shape := t.Shape()
	batch, features := shape[0], shape[1]

	out := tensor.Zeros[float32](tensor.Shape{batch, steps, features}, t.Backend())
	src := t.Data()
	dst := out.Data()
	for b := 0; b < batch; b++ {
		row := src[b*features : (b+1)*features]
		for s := 0; s < steps; s++ {
			copy(dst[(b*steps+s)*features:(b*steps+s+1)*features], row)
		}
	}
	return out
}

// ActionDim returns the per-step action dimension.
func (d *DenoisingCNN[B]) ActionDim() int { return d.actionDim }

// ObsDim returns the observation dimension.
func (d *DenoisingCNN[B]) ObsDim() int { return d.obsDim }

// NumSteps returns the action sequence length.
func (d *DenoisingCNN[B]) NumSteps() int { return d.numSteps }

// Parameters returns the parameters of all convolutional blocks.
func (d *DenoisingCNN[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, conv := range d.convs {
		params = append(params, conv.Parameters()...)
	}
	return append(params, d.proj.Parameters()...)
}

// StateDict returns all block parameters under "convs.<i>." and "proj."
// prefixes.
func (d *DenoisingCNN[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, conv := range d.convs {
		mergeStateDict(stateDict, fmt.Sprintf("convs.%d", i), conv.StateDict())
	}
	mergeStateDict(stateDict, "proj", d.proj.StateDict())
	return stateDict
}

// LoadStateDict loads all block parameters.
func (d *DenoisingCNN[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, conv := range d.convs {
		if err := conv.LoadStateDict(subStateDict(stateDict, fmt.Sprintf("convs.%d", i))); err != nil {
			return fmt.Errorf("conv block %d: %w", i, err)
		}
	}
	if err := d.proj.LoadStateDict(subStateDict(stateDict, "proj")); err != nil {
		return fmt.Errorf("projection: %w", err)
	}
	return nil
}
