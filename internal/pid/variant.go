package pid

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownVariant = errors.New("pid: unknown variant")

// Variant identifies one correction policy of the controller family.
type Variant int

const (
	VariantPositional Variant = iota
	VariantIncremental
	VariantSeparation
	VariantAntiSaturation
	VariantAntiDeadband
)

var variantNames = [...]string{
	VariantPositional:     "positional",
	VariantIncremental:    "incremental",
	VariantSeparation:     "separation",
	VariantAntiSaturation: "antisaturation",
	VariantAntiDeadband:   "antideadband",
}

// Valid reports whether v is one of the declared variants.
func (v Variant) Valid() bool {
	return v >= 0 && int(v) < len(variantNames)
}

func (v Variant) String() string {
	if !v.Valid() {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// Variants returns every variant in declaration order.
func Variants() []Variant {
	out := make([]Variant, len(variantNames))
	for i := range variantNames {
		out[i] = Variant(i)
	}
	return out
}

// ParseVariant maps a name such as "separation" to its Variant. Matching is
// case-insensitive and ignores '-' and '_'.
func ParseVariant(name string) (Variant, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(name))
	switch key {
	case "antiallergy":
		return VariantAntiDeadband, nil
	case "position":
		return VariantPositional, nil
	}
	for i, n := range variantNames {
		if n == key {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}
