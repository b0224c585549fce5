package postfx

import (
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
	"github.com/chewxy/math32"
)

// The kernels below are the Go fragment stages of the embedded WGSL programs. The software backend
// runs them; they follow the WGSL line by line so both backends produce the same image.

func uvOf(in shader.FragmentInput) (float32, float32) {
	fc, res := in.FragCoord(), in.Resolution()
	return fc[0] / res[0], fc[1] / res[1]
}

func brightKernel(in shader.FragmentInput) shader.FragmentOutput {
	u, v := uvOf(in)
	c := in.Sample("srcTexture", u, v)
	threxp := in.Vec2("threxp")
	return shader.FragmentOutput{Color: [4]float32{
		math32.Pow(c[0], threxp[0]) + threxp[1],
		math32.Pow(c[1], threxp[0]) + threxp[1],
		math32.Pow(c[2], threxp[0]) + threxp[1],
		1,
	}}
}

func blurKernel(in shader.FragmentInput) shader.FragmentOutput {
	u, v := uvOf(in)
	ps := in.Vec2("pixelSize")
	it := in.Float("iteration")
	ox := ps[0]*it + ps[0]*0.5
	oy := ps[1]*it + ps[1]*0.5

	taps := [4][4]float32{
		in.Sample("srcTexture", u+ox, v+oy),
		in.Sample("srcTexture", u-ox, v-oy),
		in.Sample("srcTexture", u+ox, v-oy),
		in.Sample("srcTexture", u-ox, v+oy),
	}
	var out shader.FragmentOutput
	for _, t := range taps {
		out.Color[0] += t[0]
		out.Color[1] += t[1]
		out.Color[2] += t[2]
	}
	out.Color[0] *= 0.25
	out.Color[1] *= 0.25
	out.Color[2] *= 0.25
	out.Color[3] = 1
	return out
}

func compositeKernel(in shader.FragmentInput) shader.FragmentOutput {
	fc := in.FragCoord()
	res := in.Vec2("resolution")
	u, v := uvOf(in)

	coarse := in.Sample("srcTexture", math32.Floor(fc[0]/8)*8/res[0], math32.Floor(fc[1]/8)*8/res[1])
	base := in.Sample("srcTexture", u, v)

	gray := (coarse[0] + coarse[1] + coarse[2]) / 3
	ink := GlyphInk(GlyphPattern(gray), fc)

	split := DefaultSplit
	if in.Defined(shader.FeatureBlendDepth) {
		d := in.LoadDepth("depthTexture", int(fc[0]), int(fc[1]))
		split = DepthSplit(d, in.Float("cameraNear"), in.Float("cameraFar"))
	}

	var out shader.FragmentOutput
	for i := 0; i < 3; i++ {
		styled := (1-split)*coarse[i]*ink + split*base[i]
		out.Color[i] = base[i]*(1-base[3]) + styled*base[3]
	}
	if in.Defined(shader.FeatureBlendBloom) {
		bloom := in.Sample("bloomTexture", u, v)
		intensity := in.Float("bloomIntensity")
		for i := 0; i < 3; i++ {
			out.Color[i] += bloom[i] * intensity
		}
	}
	out.Color[3] = 1
	return out
}
