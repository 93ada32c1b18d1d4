package tiff

import (
	"fmt"
	"math"
	"math/big"
)

// Rational is a TIFF RATIONAL/SRATIONAL value: a numerator/denominator
// pair that is kept exact when possible. TIFF's real-world EXIF corpus
// contains the degenerate 0/0 value (e.g. DigitalZoomRatio meaning "no
// zoom used"), which math/big.Rat cannot represent, so a zero
// denominator is tracked separately as a NaN-equivalent pair that still
// remembers its original numerator and denominator.
//
// Grounded on mdouchement-tiff/tag.go, which already reaches for
// math/big.Rat to represent TIFF RATIONAL/SRATIONAL fields.
type Rational struct {
	num, den int64
	rat      *big.Rat // nil when den == 0
}

// NewRational builds a Rational from a numerator/denominator pair. A
// zero denominator is legal and yields a NaN-equivalent value.
func NewRational(num, den int64) Rational {
	r := Rational{num: num, den: den}
	if den != 0 {
		r.rat = big.NewRat(num, den)
	}
	return r
}

// RationalFromFloat builds the exact Rational for an integer-valued
// float, or the best big.Rat approximation of a non-integral one, with
// denominator 1 unless denominator is supplied.
func RationalFromFloat(value float64, denominator int64) Rational {
	if denominator == 0 {
		return Rational{num: int64(value), den: 0}
	}
	if denominator == 1 && value == math.Trunc(value) {
		return NewRational(int64(value), 1)
	}
	rat := new(big.Rat).SetFloat64(value / float64(denominator))
	if rat == nil {
		// value isn't finite; fall back to the NaN pair.
		return Rational{num: int64(value), den: 0}
	}
	return Rational{num: rat.Num().Int64(), den: rat.Denom().Int64(), rat: rat}
}

// IsNaN reports whether this Rational is the degenerate zero-denominator
// value.
func (r Rational) IsNaN() bool {
	return r.den == 0
}

// Numerator and Denominator return the pair as originally constructed
// (or as last reduced by LimitDenominator).
func (r Rational) Numerator() int64   { return r.num }
func (r Rational) Denominator() int64 { return r.den }

// Float64 returns the floating point value, NaN if the denominator is
// zero.
func (r Rational) Float64() float64 {
	if r.IsNaN() {
		return math.NaN()
	}
	f, _ := r.rat.Float64()
	return f
}

func (r Rational) String() string {
	if r.IsNaN() {
		return fmt.Sprintf("%d/%d", r.num, r.den)
	}
	return fmt.Sprintf("%d/%d", r.num, r.den)
}

// Sign reports whether the rational is negative, matching IFDRational's
// use for auto-typing between RATIONAL and SRATIONAL.
func (r Rational) Sign() int {
	if r.IsNaN() {
		if r.num < 0 {
			return -1
		}
		return 1
	}
	return r.rat.Sign()
}

// LimitDenominator returns the closest rational to r whose denominator
// does not exceed maxDenominator, found by descending the Stern-Brocot
// tree via the continued-fraction convergents of num/den (the algorithm
// Python's fractions.Fraction.limit_denominator implements, which
// IFDRational.limit_rational in original_source/TiffImagePlugin.py
// delegates to). A NaN pair is returned unchanged: denominator zero is
// semantically valid and has no nearby approximation.
func (r Rational) LimitDenominator(maxDenominator int64) Rational {
	if r.IsNaN() {
		return r
	}
	if maxDenominator < 1 {
		maxDenominator = 1
	}
	if r.den <= maxDenominator {
		return r
	}

	// Continued-fraction convergents of |num|/den.
	negative := r.num < 0
	n0, d0 := absInt64(r.num), r.den

	p0, q0 := int64(0), int64(1)
	p1, q1 := int64(1), int64(0)
	n, d := n0, d0
	for d != 0 {
		a := n / d
		p2 := a*p1 + p0
		q2 := a*q1 + q0
		if q2 > maxDenominator {
			break
		}
		p0, q0 = p1, q1
		p1, q1 = p2, q2
		n, d = d, n-a*d
	}

	// p1/q1 is the best convergent found within bound. Try one more
	// semiconvergent step, which can occasionally beat p1/q1.
	best := big.NewRat(p1, q1)
	if q1 < maxDenominator && d != 0 {
		a := (maxDenominator - q0) / q1
		pk := a*p1 + p0
		qk := a*q1 + q0
		if qk <= maxDenominator && qk > 0 {
			cand := big.NewRat(pk, qk)
			target := big.NewRat(n0, d0)
			if absRatDiff(cand, target).Cmp(absRatDiff(best, target)) < 0 {
				best = cand
			}
		}
	}

	num := best.Num().Int64()
	den := best.Denom().Int64()
	if negative {
		num = -num
	}
	return NewRational(num, den)
}

func absRatDiff(a, b *big.Rat) *big.Rat {
	d := new(big.Rat).Sub(a, b)
	return d.Abs(d)
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// limitUnsignedRational implements §4.2's rule for RATIONAL (unsigned
// 32-bit): values with magnitude > 1 are inverted before limiting so the
// denominator search stays bounded, then swapped back.
func limitUnsignedRational(r Rational, maxDenominator int64) Rational {
	if r.IsNaN() {
		return r
	}
	if math.Abs(r.Float64()) > 1 {
		inv := NewRational(r.den, r.num)
		limited := inv.LimitDenominator(maxDenominator)
		return NewRational(limited.den, limited.num)
	}
	return r.LimitDenominator(maxDenominator)
}

// limitSignedRational implements §4.2's rule for SRATIONAL: reduce via
// limitUnsignedRational-style inversion if either component underflows
// minVal, then re-limit if the result overflows maxVal.
func limitSignedRational(r Rational, maxVal, minVal int64) Rational {
	if r.IsNaN() {
		return r
	}
	num, den := r.Numerator(), r.Denominator()
	if float64(num) < float64(minVal) || float64(den) < float64(minVal) {
		limited := limitUnsignedRational(NewRational(absInt64(num), absInt64(den)), absInt64(minVal))
		num, den = limited.num, limited.den
		if r.Sign() < 0 {
			num = -num
		}
	}
	if float64(num) > float64(maxVal) || float64(den) > float64(maxVal) {
		limited := limitUnsignedRational(NewRational(absInt64(num), absInt64(den)), maxVal)
		num, den = limited.num, limited.den
		if r.Sign() < 0 {
			num = -num
		}
	}
	return NewRational(num, den)
}
