package telephony

import (
	"github.com/MrWong99/callswarm/pkg/audio"
)

// agentSampleRate is the PCM sample rate the voice agent's session expects;
// twilioSampleRate is that of Twilio Media Streams, which run at 8 kHz mu-law.
const (
	twilioSampleRate = 8000
	agentSampleRate  = 16000
)

// mulawDecodeTable maps each of the 256 possible mu-law octets to its
// linear PCM16 value, per ITU-T G.711.
var mulawDecodeTable = buildMulawDecodeTable()

func buildMulawDecodeTable() [256]int16 {
	const bias = 0x84
	var table [256]int16
	for i := 0; i < 256; i++ {
		b := ^byte(i)
		sign := b & 0x80
		exponent := (b >> 4) & 0x07
		mantissa := b & 0x0F

		sample := (int32(mantissa)<<3 + bias) << exponent
		sample -= bias
		if sign != 0 {
			sample = -sample
		}
		table[i] = int16(sample)
	}
	return table
}

// linearToMulaw encodes one linear PCM16 sample to a mu-law octet.
func linearToMulaw(sample int16) byte {
	const bias = 0x84
	const clip = 32635

	sign := byte(0)
	s := int32(sample)
	if s < 0 {
		sign = 0x80
		s = -s
	}
	if s > clip {
		s = clip
	}
	s += bias

	exponent := byte(7)
	for mask := int32(0x4000); (s&mask) == 0 && exponent > 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte((s >> (exponent + 3)) & 0x0F)
	return ^(sign | (exponent << 4) | mantissa)
}

// MulawToPCM16 decodes Twilio's mu-law 8 kHz payload into the PCM16 16 kHz
// stream the voice agent session expects.
func MulawToPCM16(mulaw []byte) []byte {
	pcm8k := make([]byte, len(mulaw)*2)
	for i, b := range mulaw {
		sample := mulawDecodeTable[b]
		pcm8k[i*2] = byte(sample)
		pcm8k[i*2+1] = byte(sample >> 8)
	}
	return audio.ResampleMono16(pcm8k, twilioSampleRate, agentSampleRate)
}

// PCM16ToMulaw encodes the voice agent's PCM16 16 kHz audio down to the
// mu-law 8 kHz payload Twilio's media stream expects.
func PCM16ToMulaw(pcm16k []byte) []byte {
	pcm8k := audio.ResampleMono16(pcm16k, agentSampleRate, twilioSampleRate)
	mulaw := make([]byte, len(pcm8k)/2)
	for i := range mulaw {
		sample := int16(pcm8k[i*2]) | int16(pcm8k[i*2+1])<<8
		mulaw[i] = linearToMulaw(sample)
	}
	return mulaw
}
