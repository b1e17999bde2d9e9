package telephony

import "testing"

func TestLinearToMulaw_RoundTripsWithinQuantizationError(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 100, -100, 5000, -5000, 32000, -32000}
	for _, s := range samples {
		encoded := linearToMulaw(s)
		decoded := mulawDecodeTable[encoded]

		diff := int(decoded) - int(s)
		if diff < 0 {
			diff = -diff
		}
		// mu-law is lossy; allow a generous tolerance proportional to
		// amplitude rather than requiring an exact round trip.
		tolerance := int(s)/20 + 300
		if tolerance < 0 {
			tolerance = -tolerance
		}
		if diff > tolerance {
			t.Errorf("sample %d round-tripped to %d (diff %d exceeds tolerance %d)", s, decoded, diff, tolerance)
		}
	}
}

func TestLinearToMulaw_SilenceRoundTripsExactly(t *testing.T) {
	t.Parallel()

	encoded := linearToMulaw(0)
	if decoded := mulawDecodeTable[encoded]; decoded != 0 {
		t.Errorf("silence decoded to %d, want 0", decoded)
	}
}

func TestMulawToPCM16_DoublesSampleCountFor8kTo16kUpsample(t *testing.T) {
	t.Parallel()

	mulaw := make([]byte, 160) // 20ms at 8kHz
	for i := range mulaw {
		mulaw[i] = linearToMulaw(0)
	}

	pcm := MulawToPCM16(mulaw)
	wantSamples := len(mulaw) * 2 // 16kHz is double the sample rate
	if got := len(pcm) / 2; got != wantSamples {
		t.Errorf("got %d PCM16 samples, want %d", got, wantSamples)
	}
}

func TestPCM16ToMulaw_HalvesSampleCountFor16kTo8kDownsample(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 640) // 320 samples at 16kHz
	mulaw := PCM16ToMulaw(pcm)

	wantSamples := 160
	if got := len(mulaw); got != wantSamples {
		t.Errorf("got %d mu-law samples, want %d", got, wantSamples)
	}
}
