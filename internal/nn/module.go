// Package nn implements the neural network architectures used by
// diffusion-style policy pipelines:
//
//   - MLP: feed-forward network from a list of layer sizes
//   - DenoisingMLP / DenoisingCNN: conditional denoisers over an action
//     sequence, conditioned on an observation and a diffusion step
//   - PositionalEmbedding: sinusoidal embedding of real-valued scalars
//
// plus the layers they are built from (Linear, Conv1D, activations),
// deterministic seeded initialization, and snapshot save/load.
package nn

import (
	"fmt"
	"strings"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// Module is the base interface for all serializable network components.
//
// Forward methods are deliberately not part of this interface: layers map
// one tensor to one tensor, while denoisers take conditioning inputs. The
// Layer and Denoiser interfaces add the respective call signatures.
type Module[B tensor.Backend] interface {
	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Parameter-free modules return
	// an empty slice.
	Parameters() []*Parameter[B]

	// StateDict returns a flat map of parameter names to raw tensors.
	// Nested modules use dotted prefixes (e.g. "layers.0.weight").
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies parameter values from a state dictionary.
	// Shapes and dtypes must match the module's current parameters.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Layer is a module mapping a single input tensor to an output tensor.
type Layer[B tensor.Backend] interface {
	Module[B]
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}

// Denoiser is a module predicting a denoised action sequence from a noisy
// one, conditioned on an observation vector and a diffusion step scalar.
type Denoiser[B tensor.Backend] interface {
	Module[B]
	Forward(actions, obs, step *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}

// stateless provides the Module plumbing for parameter-free modules.
type stateless[B tensor.Backend] struct{}

func (stateless[B]) Parameters() []*Parameter[B] { return nil }

func (stateless[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

func (stateless[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// mergeStateDict copies src entries into dst under a dotted prefix.
func mergeStateDict(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	for name, raw := range src {
		dst[prefix+"."+name] = raw
	}
}

// subStateDict extracts the entries under a dotted prefix, with the prefix
// stripped.
func subStateDict(src map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	sub := make(map[string]*tensor.RawTensor)
	for name, raw := range src {
		if rest, ok := strings.CutPrefix(name, prefix+"."); ok {
			sub[rest] = raw
		}
	}
	return sub
}

// loadParameter copies a named tensor from the state dict into a parameter,
// validating shape and dtype.
func loadParameter[B tensor.Backend](stateDict map[string]*tensor.RawTensor, name string, p *Parameter[B]) error {
	raw, ok := stateDict[name]
	if !ok {
		return fmt.Errorf("missing %s in state dict", name)
	}

	dst := p.Tensor().Raw()
	if !raw.Shape().Equal(dst.Shape()) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, dst.Shape(), raw.Shape())
	}
	if raw.DType() != dst.DType() {
		return fmt.Errorf("%s dtype mismatch: expected %v, got %v", name, dst.DType(), raw.DType())
	}

	copy(p.Tensor().Data(), raw.AsFloat32())
	return nil
}
