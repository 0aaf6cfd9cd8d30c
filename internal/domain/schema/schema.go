// Package schema parses flat record layouts such as
// "address player, uint256 score, uint256 playTime" and encodes records
// against them with the contract ABI codec.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PlayerScore is the layout published by this service.
const PlayerScore = "address player, uint256 score, uint256 playTime"

// PlayerScoreName is the id the layout is registered under.
const PlayerScoreName = "player_score"

const wordSize = 32

type kind uint8

const (
	kindAddress kind = iota + 1
	kindUint
	kindBool
	kindFixedBytes
)

// Column is one typed, named slot of a schema.
type Column struct {
	Type string
	Name string

	kind kind
	size int // bit width for uintN, byte width for bytesN
	abi  abi.Type
}

// Schema is a parsed layout. The zero value is not usable; call Parse.
type Schema struct {
	def  string
	cols []Column
	args abi.Arguments
	id   common.Hash
}

// Parse validates a comma-separated "type name" list. Only static types are
// supported: address, bool, uint8..uint256 and bytes1..bytes32.
func Parse(def string) (*Schema, error) {
	def = strings.TrimSpace(def)
	if def == "" {
		return nil, fmt.Errorf("%w: empty definition", ErrInvalidSchema)
	}

	parts := strings.Split(def, ",")
	cols := make([]Column, 0, len(parts))
	args := make(abi.Arguments, 0, len(parts))
	names := make(map[string]struct{}, len(parts))
	for i, part := range parts {
		tokens := strings.Fields(part)
		if len(tokens) != 2 {
			return nil, fmt.Errorf("%w: column %d %q: want \"type name\"", ErrInvalidSchema, i, strings.TrimSpace(part))
		}
		col, err := parseColumn(tokens[0], tokens[1])
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		if _, dup := names[col.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, col.Name)
		}
		names[col.Name] = struct{}{}
		cols = append(cols, col)
		args = append(args, abi.Argument{Name: col.Name, Type: col.abi})
	}

	return &Schema{def: def, cols: cols, args: args, id: ComputeID(def)}, nil
}

// MustParse is Parse for package-level constants.
func MustParse(def string) *Schema {
	s, err := Parse(def)
	if err != nil {
		panic(err)
	}
	return s
}

// ComputeID derives the schema id: keccak256 over the definition text.
func ComputeID(def string) common.Hash {
	return crypto.Keccak256Hash([]byte(def))
}

// Definition returns the trimmed definition text.
func (s *Schema) Definition() string { return s.def }

// ID returns the schema id.
func (s *Schema) ID() common.Hash { return s.id }

// Columns returns a copy of the parsed columns.
func (s *Schema) Columns() []Column {
	return append([]Column(nil), s.cols...)
}

// Size returns the encoded byte length of one record.
func (s *Schema) Size() int { return len(s.cols) * wordSize }

func parseColumn(typ, name string) (Column, error) {
	col := Column{Type: typ, Name: name}
	switch {
	case typ == "address":
		col.kind = kindAddress
	case typ == "bool":
		col.kind = kindBool
	case strings.HasPrefix(typ, "uint"):
		bits := 256
		if rest := typ[len("uint"):]; rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil || n < 8 || n > 256 || n%8 != 0 {
				return col, fmt.Errorf("%w: %q", ErrUnsupportedType, typ)
			}
			bits = n
		}
		col.Type = "uint" + strconv.Itoa(bits)
		col.kind, col.size = kindUint, bits
	case strings.HasPrefix(typ, "bytes"):
		n, err := strconv.Atoi(typ[len("bytes"):])
		if err != nil || n < 1 || n > 32 {
			return col, fmt.Errorf("%w: %q", ErrUnsupportedType, typ)
		}
		col.kind, col.size = kindFixedBytes, n
	default:
		return col, fmt.Errorf("%w: %q", ErrUnsupportedType, typ)
	}

	t, err := abi.NewType(col.Type, "", nil)
	if err != nil {
		return col, fmt.Errorf("%w: %q: %v", ErrUnsupportedType, typ, err)
	}
	col.abi = t
	return col, nil
}
