package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Provably-fair roll derivation. Everything in this file is a pure function
// of (serverSeed, clientSeed, nonce) so that any player can re-derive a past
// roll from the revealed seed and the published history.

const (
	// digestWindow is the width in hex characters of one scan window.
	digestWindow = 5
	// rollCutoff rejects windows that would bias the modulo reduction.
	rollCutoff = 999999
	// ExhaustedRoll is the defined fallback when every window of the digest
	// is rejected. Not an error; it must match historical rolls bit for bit.
	ExhaustedRoll = 99.99
)

// Roll derives a value in [0.01, 100.00] with two decimal places.
//
// The digest is HMAC-SHA512(key=serverSeed, msg=clientSeed+"-"+nonce) as a
// 128-char hex string, scanned in 5-char windows from offset 0. The first
// window parsing below the cutoff is reduced mod 10000, scaled to two
// decimals and shifted off zero.
func Roll(serverSeed, clientSeed string, nonce int64) float64 {
	h := hmac.New(sha512.New, []byte(serverSeed))
	fmt.Fprintf(h, "%s-%d", clientSeed, nonce)
	return rollFromDigest(hex.EncodeToString(h.Sum(nil)))
}

func rollFromDigest(digest string) float64 {
	for offset := 0; offset+digestWindow <= len(digest); offset += digestWindow {
		lucky, _ := strconv.ParseInt(digest[offset:offset+digestWindow], 16, 64)
		if lucky >= rollCutoff {
			continue
		}
		return float64(lucky%10000+1) / 100
	}
	return ExhaustedRoll
}

// DieFace rescales a roll onto a six-sided die.
func DieFace(roll float64) int {
	face := int(math.Ceil(roll / (100.0 / 6.0)))
	if face < 1 {
		face = 1
	}
	if face > 6 {
		face = 6
	}
	return face
}

// HashServerSeed computes the public commitment for a server seed.
func HashServerSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// VerifyCommitment reports whether hash is the commitment published for
// serverSeed before play.
func VerifyCommitment(serverSeed, hash string) bool {
	return strings.EqualFold(HashServerSeed(serverSeed), hash)
}

type Flower string

const (
	FlowerRed     Flower = "red"
	FlowerYellow  Flower = "yellow"
	FlowerOrange  Flower = "orange"
	FlowerRainbow Flower = "rainbow"
	FlowerBlue    Flower = "blue"
	FlowerPurple  Flower = "purple"
	FlowerPastel  Flower = "pastel"
)

// ClassifyFlower buckets a roll into a flower colour. Comparison is done in
// hundredths so the two-decimal boundaries are exact in spite of float
// representation.
func ClassifyFlower(roll float64) Flower {
	cents := int(math.Round(roll * 100))
	switch {
	case cents <= 1428:
		return FlowerRed
	case cents <= 2857:
		return FlowerYellow
	case cents <= 4286:
		return FlowerOrange
	case cents <= 5715:
		return FlowerRainbow
	case cents <= 7144:
		return FlowerBlue
	case cents <= 8573:
		return FlowerPurple
	default:
		return FlowerPastel
	}
}

// Temperature maps a flower onto the hot/cold call set. Rainbow is neither:
// only an exact rainbow call pays.
func (f Flower) Temperature() string {
	switch f {
	case FlowerRed, FlowerYellow, FlowerOrange:
		return "hot"
	case FlowerBlue, FlowerPurple, FlowerPastel:
		return "cold"
	default:
		return ""
	}
}

type HandRank int

const (
	HandBust HandRank = iota
	HandOnePair
	HandTwoPair
	HandThreeOfAKind
	HandFullHouse
	HandFourOfAKind
	HandFiveOfAKind
)

func (r HandRank) String() string {
	switch r {
	case HandOnePair:
		return "1 pair"
	case HandTwoPair:
		return "2 pairs"
	case HandThreeOfAKind:
		return "3 of a kind"
	case HandFullHouse:
		return "full house"
	case HandFourOfAKind:
		return "4 of a kind"
	case HandFiveOfAKind:
		return "5 of a kind"
	default:
		return "bust"
	}
}

// RankFlowerHand ranks five flowers by the multiplicity of the mode. Pairs
// of ranks that share a top multiplicity (1 pair vs 2 pairs, trips vs full
// house) are split by whether a second group of size >= 2 exists.
func RankFlowerHand(flowers []Flower) HandRank {
	counts := make(map[Flower]int, len(flowers))
	for _, f := range flowers {
		counts[f]++
	}

	first, second := 0, 0
	for _, n := range counts {
		if n > first {
			first, second = n, first
		} else if n > second {
			second = n
		}
	}

	switch first {
	case 5:
		return HandFiveOfAKind
	case 4:
		return HandFourOfAKind
	case 3:
		if second >= 2 {
			return HandFullHouse
		}
		return HandThreeOfAKind
	case 2:
		if second >= 2 {
			return HandTwoPair
		}
		return HandOnePair
	default:
		return HandBust
	}
}

// ClassifyRolls maps a batch of rolls to flowers.
func ClassifyRolls(rolls []float64) []Flower {
	flowers := make([]Flower, len(rolls))
	for i, r := range rolls {
		flowers[i] = ClassifyFlower(r)
	}
	return flowers
}
