package tiff

// Value is the tagged union described in §3 as TagValue: exactly one of
// the fields below is meaningful, selected by the sibling Type. Encoding
// it as a struct-of-slices rather than an interface{} keeps IFD.Get
// allocation-free for the common scalar case and avoids a type-switch
// at every call site, at the cost of a few always-nil fields per value —
// an acceptable trade for a format where most directories hold a few
// dozen entries.
type Value struct {
	// Ints holds every integral type (BYTE, SHORT, LONG, SBYTE, SSHORT,
	// SLONG, IFDTYPE, LONG8), sign-extended into int64.
	Ints []int64
	// Rationals holds RATIONAL and SRATIONAL values.
	Rationals []Rational
	// Floats holds FLOAT and DOUBLE values.
	Floats []float64
	// ASCII holds decoded ASCII/Latin-1 string data, terminator
	// stripped.
	ASCII string
	// Bytes holds raw BYTE/UNDEFINED payloads where the caller wants
	// the unparsed bytes rather than an Ints view.
	Bytes []byte
	// SubIFD holds a nested directory value (§4.4 "Nested IFDs"),
	// exclusive with every other field.
	SubIFD *IFD
}

// Len reports the logical element count of the value, used for the
// IFD entry's `count` field during serialization.
func (v Value) Len() int {
	switch {
	case v.SubIFD != nil:
		return 1
	case v.ASCII != "":
		return len(v.ASCII) + 1 // NUL terminator
	case v.Bytes != nil:
		return len(v.Bytes)
	case v.Rationals != nil:
		return len(v.Rationals)
	case v.Floats != nil:
		return len(v.Floats)
	default:
		return len(v.Ints)
	}
}

// scalarOrSelf collapses a single-element Value view to a bare Go value
// for IFD.Get's non-legacy presentation (§9 "dual legacy/v2 view": this
// core keeps only the non-wrapping view).
func (v Value) scalarOrSelf() any {
	switch {
	case v.SubIFD != nil:
		return v.SubIFD
	case v.ASCII != "":
		return v.ASCII
	case v.Bytes != nil:
		return v.Bytes
	case len(v.Ints) == 1:
		return v.Ints[0]
	case len(v.Rationals) == 1:
		return v.Rationals[0]
	case len(v.Floats) == 1:
		return v.Floats[0]
	default:
		return v
	}
}

// IntsOf is a convenience constructor for an Ints-backed Value.
func IntsOf(vs ...int64) Value { return Value{Ints: vs} }

// RationalsOf is a convenience constructor for a Rationals-backed Value.
func RationalsOf(vs ...Rational) Value { return Value{Rationals: vs} }

// FloatsOf is a convenience constructor for a Floats-backed Value.
func FloatsOf(vs ...float64) Value { return Value{Floats: vs} }

// ASCIIOf is a convenience constructor for an ASCII-backed Value.
func ASCIIOf(s string) Value { return Value{ASCII: s} }

// BytesOf is a convenience constructor for a Bytes-backed Value.
func BytesOf(b []byte) Value { return Value{Bytes: b} }

// inferType implements §4.3's auto-typing rule: when a caller sets a
// tag without specifying a type explicitly, the value's shape picks the
// narrowest TIFF type that can hold it. Integers are typed SHORT, SSHORT
// or LONG when every value fits that range, and SLONG otherwise.
func inferType(v Value) Type {
	switch {
	case v.SubIFD != nil:
		return LONG
	case v.ASCII != "":
		return ASCII
	case v.Bytes != nil:
		return BYTE
	case v.Rationals != nil:
		for _, r := range v.Rationals {
			if r.Sign() < 0 {
				return SRATIONAL
			}
		}
		return RATIONAL
	case v.Floats != nil:
		return DOUBLE
	case v.Ints != nil:
		short, signedShort, long := true, true, true
		for _, n := range v.Ints {
			if n < 0 || n >= 1<<16 {
				short = false
			}
			if n <= -(1<<15) || n >= 1<<15 {
				signedShort = false
			}
			if n < 0 || n >= 1<<32 {
				long = false
			}
		}
		switch {
		case short:
			return SHORT
		case signedShort:
			return SSHORT
		case long:
			return LONG
		default:
			return SLONG
		}
	default:
		return UNDEFINED
	}
}
