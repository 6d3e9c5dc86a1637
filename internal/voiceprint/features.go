package voiceprint

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	preEmphasis = 0.97
	melLowHz    = 20.0
	logFloor    = 1e-10
)

// FeatureOptions describes the MFCC analysis frame.
type FeatureOptions struct {
	FrameMs      int
	HopMs        int
	MelBands     int
	Coefficients int
}

// Features computes MFCC frames (one row per analysis frame, Coefficients
// columns including c0). Signals shorter than one frame yield no rows.
func Features(samples []float64, sampleRate int, opts FeatureOptions) [][]float64 {
	frameLen := sampleRate * opts.FrameMs / 1000
	hop := sampleRate * opts.HopMs / 1000
	if frameLen <= 0 || hop <= 0 || len(samples) < frameLen {
		return nil
	}
	nfft := 1
	for nfft < frameLen {
		nfft <<= 1
	}

	emphasized := make([]float64, len(samples))
	emphasized[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		emphasized[i] = samples[i] - preEmphasis*samples[i-1]
	}

	window := hamming(frameLen)
	bank := melFilterbank(opts.MelBands, nfft, sampleRate)
	fft := fourier.NewFFT(nfft)
	buf := make([]float64, nfft)
	coeffs := make([]complex128, nfft/2+1)
	power := make([]float64, nfft/2+1)
	logMel := make([]float64, opts.MelBands)

	var out [][]float64
	for start := 0; start+frameLen <= len(emphasized); start += hop {
		for i := range buf {
			buf[i] = 0
		}
		for i := 0; i < frameLen; i++ {
			buf[i] = emphasized[start+i] * window[i]
		}
		coeffs = fft.Coefficients(coeffs, buf)
		for i, c := range coeffs {
			mag := cmplx.Abs(c)
			power[i] = mag * mag / float64(nfft)
		}
		for m, filter := range bank {
			var energy float64
			for k, w := range filter {
				energy += w * power[k]
			}
			logMel[m] = math.Log(energy + logFloor)
		}
		out = append(out, dct2(logMel, opts.Coefficients))
	}
	return out
}

func hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func hzToMel(hz float64) float64 { return 2595 * math.Log10(1+hz/700) }

func melToHz(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }

// melFilterbank returns bands triangular filters over nfft/2+1 power bins,
// spaced evenly on the mel scale from melLowHz to Nyquist.
func melFilterbank(bands, nfft, sampleRate int) [][]float64 {
	bins := nfft/2 + 1
	lowMel := hzToMel(melLowHz)
	highMel := hzToMel(float64(sampleRate) / 2)
	points := make([]float64, bands+2)
	for i := range points {
		mel := lowMel + (highMel-lowMel)*float64(i)/float64(bands+1)
		points[i] = melToHz(mel) * float64(nfft) / float64(sampleRate)
	}

	bank := make([][]float64, bands)
	for m := range bank {
		left, center, right := points[m], points[m+1], points[m+2]
		filter := make([]float64, bins)
		for k := range filter {
			f := float64(k)
			switch {
			case f > left && f <= center:
				filter[k] = (f - left) / (center - left)
			case f > center && f < right:
				filter[k] = (right - f) / (right - center)
			}
		}
		bank[m] = filter
	}
	return bank
}

// dct2 returns the first n orthonormal DCT-II coefficients of x.
func dct2(x []float64, n int) []float64 {
	size := float64(len(x))
	out := make([]float64, n)
	for k := range out {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/size)
		}
		scale := math.Sqrt(2 / size)
		if k == 0 {
			scale = math.Sqrt(1 / size)
		}
		out[k] = sum * scale
	}
	return out
}
