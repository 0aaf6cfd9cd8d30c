package schema

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/okian/scorestream/internal/domain/model"
)

// Encode packs fields into one 32-byte word per column, in column order.
// Fields are matched by name; every column must be present.
func (s *Schema) Encode(fields []model.Field) ([]byte, error) {
	byName := make(map[string]model.Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	vals := make([]any, len(s.cols))
	for i, col := range s.cols {
		f, ok := byName[col.Name]
		if !ok || !f.Value.IsSet() {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, col.Name)
		}
		v, err := toABI(col, f.Value.Scalar())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col.Name, err)
		}
		vals[i] = v
	}
	out, err := s.args.Pack(vals...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return out, nil
}

// EncodeRecord is Encode for the player score layout.
func (s *Schema) EncodeRecord(r model.Record) ([]byte, error) {
	return s.Encode([]model.Field{
		{Name: "player", Type: "address", Value: model.Raw(r.Player)},
		{Name: "score", Type: "uint256", Value: model.Raw(r.Score)},
		{Name: "playTime", Type: "uint256", Value: model.Raw(r.PlayTime)},
	})
}

// Decode unpacks one encoded record. Values come back Wrapped, mirroring the
// nested {name, type, value} shape the streams SDK returns: addresses as
// checksummed hex, unsigned integers as *big.Int, bytesN as hex.
func (s *Schema) Decode(data []byte) ([]model.Field, error) {
	if len(data) != s.Size() {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidData, s.Size(), len(data))
	}
	vals, err := s.args.UnpackValues(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	fields := make([]model.Field, len(s.cols))
	for i, col := range s.cols {
		word := data[i*wordSize : (i+1)*wordSize]
		v, err := fromABI(col, word, vals[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col.Name, err)
		}
		fields[i] = model.Field{Name: col.Name, Type: col.Type, Value: model.Wrapped(v)}
	}
	return fields, nil
}

// toABI converts v to the Go type the ABI codec expects for col.
func toABI(col Column, v any) (any, error) {
	switch col.kind {
	case kindAddress:
		return toAddress(v)
	case kindUint:
		n, err := model.ToUint(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		if n.BitLen() > col.size {
			return nil, fmt.Errorf("%w: %s overflows %s", ErrInvalidValue, n, col.Type)
		}
		rv := reflect.New(col.abi.GetType()).Elem()
		if rv.Kind() == reflect.Ptr {
			return n, nil
		}
		rv.SetUint(n.Uint64())
		return rv.Interface(), nil
	case kindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: want bool, got %T", ErrInvalidValue, v)
		}
		return b, nil
	case kindFixedBytes:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) > col.size {
			return nil, fmt.Errorf("%w: %d bytes do not fit %s", ErrInvalidValue, len(b), col.Type)
		}
		rv := reflect.New(col.abi.GetType()).Elem()
		reflect.Copy(rv, reflect.ValueOf(b))
		return rv.Interface(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, col.Type)
}

// fromABI turns an unpacked value into the shape Decode reports. The codec
// accepts any upper address bytes and any uintN value that fits a word, so
// both are checked against the raw word here.
func fromABI(col Column, word []byte, v any) (any, error) {
	switch col.kind {
	case kindAddress:
		for _, b := range word[:wordSize-common.AddressLength] {
			if b != 0 {
				return nil, fmt.Errorf("%w: dirty address padding", ErrInvalidData)
			}
		}
		a, ok := v.(common.Address)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected %T", ErrInvalidData, v)
		}
		return a.Hex(), nil
	case kindUint:
		n := new(big.Int).SetBytes(word)
		if n.BitLen() > col.size {
			return nil, fmt.Errorf("%w: value overflows %s", ErrInvalidData, col.Type)
		}
		return n, nil
	case kindBool:
		return v, nil
	case kindFixedBytes:
		rv := reflect.ValueOf(v)
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return hexutil.Encode(b), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, col.Type)
}

func toAddress(v any) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case string:
		if !common.IsHexAddress(x) {
			return common.Address{}, fmt.Errorf("%w: invalid address %q", ErrInvalidValue, x)
		}
		return common.HexToAddress(x), nil
	}
	return common.Address{}, fmt.Errorf("%w: want address, got %T", ErrInvalidValue, v)
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case common.Hash:
		return x[:], nil
	case string:
		b, err := hexutil.Decode(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: want bytes, got %T", ErrInvalidValue, v)
}
