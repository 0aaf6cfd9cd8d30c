package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/okian/scorestream/internal/domain/model"
)

// Streams contract methods.
const (
	methodGetPublisherData   = "getAllPublisherDataForSchema"
	methodIsSchemaRegistered = "isDataSchemaRegistered"
	methodRegisterSchemas    = "registerDataSchemas"
	methodStore              = "esstores"
)

// streamsABIJSON covers the subset of the data-streams contract in use.
const streamsABIJSON = `[
  {"type":"function","name":"getAllPublisherDataForSchema","stateMutability":"view",
   "inputs":[{"name":"schemaId","type":"bytes32"},{"name":"publisher","type":"address"}],
   "outputs":[{"name":"","type":"bytes[]"}]},
  {"type":"function","name":"isDataSchemaRegistered","stateMutability":"view",
   "inputs":[{"name":"schemaId","type":"bytes32"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"registerDataSchemas","stateMutability":"nonpayable",
   "inputs":[{"name":"schemas","type":"tuple[]","components":[
     {"name":"schemaName","type":"string"},
     {"name":"schema","type":"string"},
     {"name":"parentSchemaId","type":"bytes32"}]}],
   "outputs":[]},
  {"type":"function","name":"esstores","stateMutability":"nonpayable",
   "inputs":[{"name":"dataStreams","type":"tuple[]","components":[
     {"name":"id","type":"bytes32"},
     {"name":"schemaId","type":"bytes32"},
     {"name":"data","type":"bytes"}]}],
   "outputs":[]}
]`

var streamsABI = mustParseABI(streamsABIJSON)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// schemaRegistration is one registerDataSchemas tuple.
type schemaRegistration struct {
	SchemaName     string   `abi:"schemaName"`
	Schema         string   `abi:"schema"`
	ParentSchemaID [32]byte `abi:"parentSchemaId"`
}

// dataStream is one esstores tuple.
type dataStream struct {
	ID       [32]byte `abi:"id"`
	SchemaID [32]byte `abi:"schemaId"`
	Data     []byte   `abi:"data"`
}

func packGetPublisherData(schemaID common.Hash, publisher common.Address) ([]byte, error) {
	return streamsABI.Pack(methodGetPublisherData, [32]byte(schemaID), publisher)
}

func packIsSchemaRegistered(schemaID common.Hash) ([]byte, error) {
	return streamsABI.Pack(methodIsSchemaRegistered, [32]byte(schemaID))
}

func packRegisterSchema(name, definition string, parent common.Hash) ([]byte, error) {
	return streamsABI.Pack(methodRegisterSchemas, []schemaRegistration{{
		SchemaName:     name,
		Schema:         definition,
		ParentSchemaID: parent,
	}})
}

func packStore(streams []model.DataStream) ([]byte, error) {
	items := make([]dataStream, len(streams))
	for i, s := range streams {
		items[i] = dataStream{ID: s.ID, SchemaID: s.SchemaID, Data: s.Data}
	}
	return streamsABI.Pack(methodStore, items)
}

func unpackBytesArray(out []byte) ([][]byte, error) {
	vals, err := streamsABI.Unpack(methodGetPublisherData, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidABI, err)
	}
	payloads, ok := vals[0].([][]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected %T", ErrInvalidABI, vals[0])
	}
	return payloads, nil
}

func unpackBool(out []byte) (bool, error) {
	vals, err := streamsABI.Unpack(methodIsSchemaRegistered, out)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidABI, err)
	}
	ok, isBool := vals[0].(bool)
	if !isBool {
		return false, fmt.Errorf("%w: unexpected %T", ErrInvalidABI, vals[0])
	}
	return ok, nil
}
