package array

import "bytes"

// Equal reports whether a and b have the same type and are element-wise equal,
// including null positions. Placeholder bytes at null rows are not compared.
func Equal(a, b Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.DataType().Equal(b.DataType()) || a.Len() != b.Len() {
		return false
	}

	for i := range a.Len() {
		if !elemEqual(a, i, b, i) {
			return false
		}
	}

	return true
}

func elemEqual(a Array, i int, b Array, j int) bool {
	aNull, bNull := a.IsNull(i), b.IsNull(j)
	if aNull || bNull {
		return aNull == bNull
	}

	switch av := a.(type) {
	case *Fixed:
		bv, ok := b.(*Fixed)
		return ok && bytes.Equal(av.Value(i), bv.Value(j))
	case *Boolean:
		bv, ok := b.(*Boolean)
		return ok && av.Value(i) == bv.Value(j)
	case *List:
		bv, ok := b.(*List)
		if !ok {
			return false
		}
		as, ae := av.ValueRange(i)
		bs, be := bv.ValueRange(j)
		if ae-as != be-bs {
			return false
		}
		for k := range ae - as {
			if !elemEqual(av.child, as+k, bv.child, bs+k) {
				return false
			}
		}

		return true
	case *FixedSizeList:
		bv, ok := b.(*FixedSizeList)
		if !ok || av.dimension != bv.dimension {
			return false
		}
		for k := range av.dimension {
			if !elemEqual(av.child, i*av.dimension+k, bv.child, j*bv.dimension+k) {
				return false
			}
		}

		return true
	case *Struct:
		bv, ok := b.(*Struct)
		if !ok || len(av.fields) != len(bv.fields) {
			return false
		}
		for k := range av.fields {
			if !elemEqual(av.fields[k], i, bv.fields[k], j) {
				return false
			}
		}

		return true
	default:
		return false
	}
}
