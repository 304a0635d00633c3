package cpu

import (
	"fmt"

	"github.com/diffuse-ml/diffuse/internal/parallel"
	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// Conv1D convolves input [B, L, Cin] with kernel [Cout, K, Cin] at stride 1
// and the given zero padding, producing [B, L + 2*padding - K + 1, Cout].
//
// The channel axis is last (length-major layout), so the innermost loop
// reduces over contiguous input and kernel channels.
func (cpu *CPUBackend) Conv1D(input, kernel *tensor.RawTensor, padding int) *tensor.RawTensor {
	inShape, kShape := input.Shape(), kernel.Shape()
	if len(inShape) != 3 {
		panic(fmt.Sprintf("conv1d: expected 3-D input [batch, length, channels], got %v", inShape))
	}
	if len(kShape) != 3 {
		panic(fmt.Sprintf("conv1d: expected 3-D kernel [out_channels, width, in_channels], got %v", kShape))
	}
	if inShape[2] != kShape[2] {
		panic(fmt.Sprintf("conv1d: input has %d channels, kernel expects %d", inShape[2], kShape[2]))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv1d: negative padding %d", padding))
	}
	if input.DType() != kernel.DType() {
		panic(fmt.Sprintf("conv1d: dtype mismatch: %v vs %v", input.DType(), kernel.DType()))
	}

	batch, length, inC := inShape[0], inShape[1], inShape[2]
	outC, width := kShape[0], kShape[1]
	outLen := length + 2*padding - width + 1
	if outLen <= 0 {
		panic(fmt.Sprintf("conv1d: kernel width %d with padding %d does not fit length %d", width, padding, length))
	}

	result := mustNewRaw(tensor.Shape{batch, outLen, outC}, input.DType(), cpu.device, "conv1d")

	switch input.DType() {
	case tensor.Float32:
		conv1d(result.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), batch, length, inC, outLen, outC, width, padding, cpu.workers)
	case tensor.Float64:
		conv1d(result.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), batch, length, inC, outLen, outC, width, padding, cpu.workers)
	}
	return result
}

// conv1d splits the batch axis across workers; batch rows write disjoint
// output regions.
func conv1d[T tensor.DType](dst, in, kernel []T, batch, length, inC, outLen, outC, width, padding int, cfg parallel.Config) {
	parallel.For(batch, cfg, func(b int) {
		inBase := b * length * inC
		outBase := b * outLen * outC
		for ol := 0; ol < outLen; ol++ {
			for oc := 0; oc < outC; oc++ {
				var acc T
				for k := 0; k < width; k++ {
					il := ol + k - padding
					if il < 0 || il >= length {
						continue
					}
					inRow := in[inBase+il*inC : inBase+(il+1)*inC]
					kRow := kernel[oc*width*inC+k*inC : oc*width*inC+(k+1)*inC]
					for ci := range inRow {
						acc += inRow[ci] * kRow[ci]
					}
				}
				dst[outBase+ol*outC+oc] = acc
			}
		}
	})
}
