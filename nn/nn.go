// Copyright 2025 The Diffuse Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for the Diffuse network architectures:
// MLP, DenoisingMLP, DenoisingCNN, and PositionalEmbedding, plus the layers
// they are built from and snapshot save/load.
//
// Example:
//
//	backend := cpu.New()
//	rng := nn.NewRNG(0)
//	model := nn.NewMLP([]int{2, 128, 32, 3}, rng, backend)
//
//	input := tensor.Zeros[float32](tensor.Shape{10, 2}, backend)
//	output := model.Forward(input) // shape: [10, 3]
package nn

import (
	"github.com/diffuse-ml/diffuse/internal/nn"
	"github.com/diffuse-ml/diffuse/internal/serialization"
	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// Module is the base interface for all serializable network components.
type Module[B tensor.Backend] = nn.Module[B]

// Layer is a module mapping a single input tensor to an output tensor.
type Layer[B tensor.Backend] = nn.Layer[B]

// Denoiser is a module predicting a denoised action sequence from a noisy
// one, conditioned on an observation and a diffusion step.
type Denoiser[B tensor.Backend] = nn.Denoiser[B]

// Parameter represents a named tensor owned by a network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// RNG provides named, independently seeded random streams for parameter
// initialization.
type RNG = nn.RNG

// NewRNG creates a new RNG rooted at the given seed.
func NewRNG(seed int64) *RNG {
	return nn.NewRNG(seed)
}

// Layers

// Linear is a fully connected layer: [.., in] -> [.., out].
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new Linear layer with seeded Xavier initialization.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *RNG, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, rng, backend)
}

// Conv1D is a 1-D convolution over the second-to-last axis.
type Conv1D[B tensor.Backend] = nn.Conv1D[B]

// NewConv1D creates a new Conv1D layer (stride 1).
func NewConv1D[B tensor.Backend](inChannels, outChannels, kernelSize, padding int, rng *RNG, backend B) *Conv1D[B] {
	return nn.NewConv1D(inChannels, outChannels, kernelSize, padding, rng, backend)
}

// Activations

// ReLU applies f(x) = max(0, x).
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid applies the logistic function.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Swish applies f(x) = x * sigmoid(x).
type Swish[B tensor.Backend] = nn.Swish[B]

// NewSwish creates a new Swish (SiLU) activation module.
func NewSwish[B tensor.Backend]() *Swish[B] {
	return nn.NewSwish[B]()
}

// Architectures

// MLP is a feed-forward network built from a list of layer sizes.
type MLP[B tensor.Backend] = nn.MLP[B]

// NewMLP creates an MLP with the given layer sizes.
//
// Example:
//
//	model := nn.NewMLP([]int{2, 128, 32, 3}, nn.NewRNG(0), backend)
func NewMLP[B tensor.Backend](layerSizes []int, rng *RNG, backend B) *MLP[B] {
	return nn.NewMLP(layerSizes, rng, backend)
}

// PositionalEmbedding maps real-valued scalars to sinusoidal embeddings.
type PositionalEmbedding[B tensor.Backend] = nn.PositionalEmbedding[B]

// NewPositionalEmbedding creates a sinusoidal embedding of the given
// dimension.
func NewPositionalEmbedding[B tensor.Backend](dim int, backend B) *PositionalEmbedding[B] {
	return nn.NewPositionalEmbedding[B](dim, backend)
}

// DenoisingMLP denoises an action sequence with a fully connected trunk.
type DenoisingMLP[B tensor.Backend] = nn.DenoisingMLP[B]

// NewDenoisingMLP creates a denoising MLP.
//
// Example:
//
//	net := nn.NewDenoisingMLP(3, 4, 5, []int{32, 32}, nn.NewRNG(0), backend)
func NewDenoisingMLP[B tensor.Backend](actionDim, obsDim, numSteps int, hidden []int, rng *RNG, backend B) *DenoisingMLP[B] {
	return nn.NewDenoisingMLP(actionDim, obsDim, numSteps, hidden, rng, backend)
}

// DenoisingCNN denoises an action sequence with 1-D convolutions along the
// step axis.
type DenoisingCNN[B tensor.Backend] = nn.DenoisingCNN[B]

// NewDenoisingCNN creates a denoising CNN.
func NewDenoisingCNN[B tensor.Backend](actionDim, obsDim, numSteps int, channels []int, rng *RNG, backend B) *DenoisingCNN[B] {
	return nn.NewDenoisingCNN(actionDim, obsDim, numSteps, channels, rng, backend)
}

// Snapshots

// SnapshotHeader describes a saved snapshot.
type SnapshotHeader = serialization.Header

// Save writes a module's parameters to a .dfsn snapshot file.
func Save[B tensor.Backend](m Module[B], path, modelType string, metadata map[string]string) error {
	return nn.Save(m, path, modelType, metadata)
}

// Load reads a .dfsn snapshot into a module with matching architecture.
func Load[B tensor.Backend](path string, m Module[B]) (*SnapshotHeader, error) {
	return nn.Load(path, m)
}
