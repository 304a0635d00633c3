package nn

import (
	"fmt"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// MLP is a feed-forward network built from a list of layer sizes.
//
// NewMLP([2, 128, 32, 3], rng, backend) builds three Linear layers
// 2->128->32->3 with swish between them and no activation after the last,
// mapping [.., 2] to [.., 3] over any leading batch dimensions.
type MLP[B tensor.Backend] struct {
	sizes  []int
	layers []*Linear[B]
	act    *Swish[B]
}

// NewMLP creates an MLP with the given layer sizes and seeded
// initialization. At least an input and an output size are required.
func NewMLP[B tensor.Backend](layerSizes []int, rng *RNG, backend B) *MLP[B] {
	if len(layerSizes) < 2 {
		panic(fmt.Sprintf("NewMLP: need at least input and output sizes, got %v", layerSizes))
	}

	layers := make([]*Linear[B], 0, len(layerSizes)-1)
	for i := 0; i < len(layerSizes)-1; i++ {
		layers = append(layers, NewLinear(layerSizes[i], layerSizes[i+1], rng, backend))
	}

	return &MLP[B]{
		sizes:  append([]int(nil), layerSizes...),
		layers: layers,
		act:    NewSwish[B](),
	}
}

// LayerSizes returns the sizes the network was built from.
func (m *MLP[B]) LayerSizes() []int {
	return append([]int(nil), m.sizes...)
}

// Forward runs the input through all layers.
//
// Input shape: [.., layerSizes[0]]. Output shape: [.., layerSizes[last]].
func (m *MLP[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := input
	for i, layer := range m.layers {
		x = layer.Forward(x)
		if i < len(m.layers)-1 {
			x = m.act.Forward(x)
		}
	}
	return x
}

// Parameters returns the parameters of all layers in order.
func (m *MLP[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, layer := range m.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// StateDict returns all layer parameters under "layers.<i>." prefixes.
func (m *MLP[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, layer := range m.layers {
		mergeStateDict(stateDict, fmt.Sprintf("layers.%d", i), layer.StateDict())
	}
	return stateDict
}

// LoadStateDict loads all layer parameters.
func (m *MLP[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, layer := range m.layers {
		if err := layer.LoadStateDict(subStateDict(stateDict, fmt.Sprintf("layers.%d", i))); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}
