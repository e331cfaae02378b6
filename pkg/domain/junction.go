package domain

import (
	"encoding/json"
	"fmt"
)

// JunctionKind classifies the link between a domain and the next one.
type JunctionKind int

const (
	// JunctionAdjacent links two contiguous nucleotides of a half-helix. The
	// link between an insertion and its 3' neighbour is the link that would
	// exist between the insertion's two neighbours.
	JunctionAdjacent JunctionKind = iota
	// JunctionIdentifiedXover is a crossover registered under an id.
	JunctionIdentifiedXover
	// JunctionUnidentifiedXover is a crossover that has no id yet.
	JunctionUnidentifiedXover
	// JunctionPrime3End follows the last domain of a linear strand.
	JunctionPrime3End
)

// Junction is the link following a domain.
type Junction struct {
	Kind  JunctionKind
	Xover XoverID
}

var (
	Adjacent          = Junction{Kind: JunctionAdjacent}
	UnidentifiedXover = Junction{Kind: JunctionUnidentifiedXover}
	Prime3End         = Junction{Kind: JunctionPrime3End}
)

// IdentifiedXover returns the junction of crossover id.
func IdentifiedXover(id XoverID) Junction {
	return Junction{Kind: JunctionIdentifiedXover, Xover: id}
}

// IsXover reports whether j is a crossover, identified or not.
func (j Junction) IsXover() bool {
	return j.Kind == JunctionIdentifiedXover || j.Kind == JunctionUnidentifiedXover
}

func (j Junction) String() string {
	switch j.Kind {
	case JunctionAdjacent:
		return "Adjacent"
	case JunctionIdentifiedXover:
		return fmt.Sprintf("IdentifiedXover(%d)", j.Xover)
	case JunctionUnidentifiedXover:
		return "UnidentifiedXover"
	case JunctionPrime3End:
		return "Prime3"
	}
	return fmt.Sprintf("Junction(%d)", int(j.Kind))
}

func (j Junction) MarshalJSON() ([]byte, error) {
	if j.Kind == JunctionIdentifiedXover {
		return json.Marshal(map[string]XoverID{"IdentifiedXover": j.Xover})
	}
	return json.Marshal(j.String())
}

func (j *Junction) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch tag {
		case "Adjacent":
			*j = Adjacent
		case "UnidentifiedXover", "UnindentifiedXover":
			*j = UnidentifiedXover
		case "Prime3":
			*j = Prime3End
		default:
			return fmt.Errorf("decode junction: unknown kind %q", tag)
		}
		return nil
	}
	var tagged struct {
		IdentifiedXover *XoverID `json:"IdentifiedXover"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil || tagged.IdentifiedXover == nil {
		return fmt.Errorf("decode junction: unknown form %s", string(data))
	}
	*j = IdentifiedXover(*tagged.IdentifiedXover)
	return nil
}

// ReadJunctions infers the junctions of a sanitised domain list. An insertion
// is transparent: the junction after it is computed between the helix domains
// surrounding it.
func ReadJunctions(domains []Domain, cyclic bool) []Junction {
	if len(domains) == 0 {
		return nil
	}
	out := make([]Junction, 0, len(domains))
	prev := domains[len(domains)-1]
	step := func(i int, cur, next Domain) {
		switch {
		case next.IsInsertion():
			out = append(out, Adjacent)
			if !cur.IsInsertion() {
				prev = cur
			}
		case cur.IsInsertion():
			if i == 0 && !cyclic {
				out = append(out, Adjacent)
			} else {
				out = append(out, junctionBetween(prev, next))
			}
		default:
			out = append(out, junctionBetween(cur, next))
			prev = cur
		}
	}
	for i := 0; i < len(domains)-1; i++ {
		step(i, domains[i], domains[i+1])
	}
	if cyclic {
		step(len(domains)-1, domains[len(domains)-1], domains[0])
	} else {
		out = append(out, Prime3End)
	}
	return out
}

func junctionBetween(prime5, prime3 Domain) Junction {
	end, ok1 := prime5.Prime3End()
	start, ok2 := prime3.Prime5End()
	if ok1 && ok2 && end.Prime3() == start {
		return Adjacent
	}
	return UnidentifiedXover
}

// Extremity tells whether a nucleotide ends a domain or a strand.
type Extremity int

const (
	NotAnEnd Extremity = iota
	Prime3Extremity
	Prime5Extremity
)

func (e Extremity) IsEnd() bool    { return e != NotAnEnd }
func (e Extremity) Is3Prime() bool { return e == Prime3Extremity }
func (e Extremity) Is5Prime() bool { return e == Prime5Extremity }
