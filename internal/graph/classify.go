package graph

// Orientation says which side of a link pair becomes the relation source.
type Orientation int

const (
	// Forward keeps the pair order: from=first, to=second.
	Forward Orientation = iota
	// Reversed swaps it: from=second, to=first.
	Reversed
)

// Classification is the outcome of looking a term up in the vocabulary.
type Classification struct {
	Kind        RelationKind
	Orientation Orientation
}

// Orient builds the relation for the ordered pair (first, second).
func (c Classification) Orient(first, second Identity) Relation {
	if c.Orientation == Reversed {
		first, second = second, first
	}
	return Relation{From: first, To: second, Kind: c.Kind}
}

// Vocabulary is the fixed table of recognized relation terms.
var Vocabulary = map[string]Classification{
	"dependance for": {Kind: Dependance, Orientation: Forward},
	"depends on":     {Kind: Dependance, Orientation: Reversed},
	"mentioned in":   {Kind: Mention, Orientation: Forward},
	"relates to":     {Kind: Mention, Orientation: Forward},
	"mentions":       {Kind: Mention, Orientation: Reversed},
	"blocks":         {Kind: Block, Orientation: Forward},
	"is blocked by":  {Kind: Block, Orientation: Reversed},
}

// Classify looks term up in Vocabulary. ok is false for unrecognized terms.
func Classify(term string) (Classification, bool) {
	c, ok := Vocabulary[term]
	return c, ok
}
