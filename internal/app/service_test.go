package service_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/okian/scorestream/internal/adapters/chain"
	service "github.com/okian/scorestream/internal/app"
	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/internal/domain/normalize"
	"github.com/okian/scorestream/internal/domain/schema"
	"github.com/okian/scorestream/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const (
	alice = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
	bob   = "0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF"
)

type fakeSink struct {
	mu      sync.Mutex
	streams []model.DataStream
	err     error
}

func (f *fakeSink) Publish(_ context.Context, streams []model.DataStream) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.streams = append(f.streams, streams...)
	return "0x" + strings.Repeat("cd", 32), nil
}

type fakeSource struct {
	mu    sync.Mutex
	lists [][]model.Field
	err   error
	calls int

	schemaID  common.Hash
	publisher common.Address
}

func (f *fakeSource) FetchRecordsForSchema(_ context.Context, schemaID common.Hash, publisher common.Address) ([][]model.Field, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.schemaID, f.publisher = schemaID, publisher
	return f.lists, f.err
}

func (f *fakeSource) set(lists [][]model.Field) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = lists
}

type fakeRegistrar struct {
	hash       string
	registered []string
	waited     []string
	err        error
	receiptErr error
}

func (f *fakeRegistrar) RegisterSchema(_ context.Context, name, definition string, _ common.Hash) (string, error) {
	f.registered = append(f.registered, name+"|"+definition)
	return f.hash, f.err
}

func (f *fakeRegistrar) WaitForReceipt(_ context.Context, hash string) (*types.Receipt, error) {
	f.waited = append(f.waited, hash)
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return &types.Receipt{TxHash: common.HexToHash(hash), Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(7)}, nil
}

func fields(player string, score, playTime int64) []model.Field {
	return []model.Field{
		{Name: "player", Type: "address", Value: model.Wrapped(player)},
		{Name: "score", Type: "uint256", Value: model.Wrapped(big.NewInt(score))},
		{Name: "playTime", Type: "uint256", Value: model.Wrapped(big.NewInt(playTime))},
	}
}

func mustAddress(s string) common.Address {
	if !common.IsHexAddress(s) {
		panic("invalid address " + s)
	}
	return common.HexToAddress(s)
}

func TestService_Publish(t *testing.T) {
	Convey("Given a service with a sink", t, func() {
		sink := &fakeSink{}
		id := common.BytesToHash(common.RightPadBytes([]byte("fixed"), common.HashLength))
		svc := service.New(schema.MustParse(schema.PlayerScore),
			service.WithSink(sink),
			service.WithStreamIDFunc(func() common.Hash { return id }),
		)
		ctx := context.Background()

		Convey("When publishing a valid record", func() {
			hash, err := svc.Publish(ctx, model.Record{Player: alice, Score: "123456789012345678901234", PlayTime: "42"})

			Convey("Then one encoded stream is stored under the schema id", func() {
				So(err, ShouldBeNil)
				So(hash, ShouldStartWith, "0x")
				So(sink.streams, ShouldHaveLength, 1)
				So(sink.streams[0].ID, ShouldEqual, id)
				So(sink.streams[0].SchemaID, ShouldEqual, schema.ComputeID(schema.PlayerScore))

				decoded, err := svc.Schema().Decode(sink.streams[0].Data)
				So(err, ShouldBeNil)
				rec, err := normalize.Record(decoded)
				So(err, ShouldBeNil)
				So(rec, ShouldResemble, model.Record{Player: alice, Score: "123456789012345678901234", PlayTime: "42"})
			})
		})

		Convey("When the player is not an address", func() {
			_, err := svc.Publish(ctx, model.Record{Player: "alice", Score: "1", PlayTime: "1"})

			Convey("Then it is an invalid record and nothing is sent", func() {
				So(errors.Is(err, service.ErrInvalidRecord), ShouldBeTrue)
				So(sink.streams, ShouldBeEmpty)
			})
		})

		Convey("When the score is not an unsigned integer", func() {
			_, err := svc.Publish(ctx, model.Record{Player: alice, Score: "-5", PlayTime: "1"})
			So(errors.Is(err, service.ErrInvalidRecord), ShouldBeTrue)

			_, err = svc.Publish(ctx, model.Record{Player: alice, Score: "1.5", PlayTime: "1"})
			So(errors.Is(err, service.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When the sink fails", func() {
			sink.err = errors.New("rpc down")
			_, err := svc.Publish(ctx, model.Record{Player: alice, Score: "1", PlayTime: "1"})

			Convey("Then the sink error is returned as is", func() {
				So(err, ShouldEqual, sink.err)
				So(errors.Is(err, service.ErrInvalidRecord), ShouldBeFalse)
			})
		})
	})

	Convey("Given a service without a sink", t, func() {
		svc := service.New(schema.MustParse(schema.PlayerScore))
		_, err := svc.Publish(context.Background(), model.Record{Player: alice, Score: "1", PlayTime: "1"})
		So(err, ShouldEqual, service.ErrNoSink)
	})
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given a source holding several records", t, func() {
		src := &fakeSource{lists: [][]model.Field{
			fields(alice, 50, 10),
			fields(bob, 80, 20),
			fields(alice, 30, 5),
		}}
		publisher := mustAddress(alice)
		svc := service.New(schema.MustParse(schema.PlayerScore),
			service.WithSource(src),
			service.WithPublisher(publisher),
		)

		Convey("When building the leaderboard", func() {
			board, err := svc.Leaderboard(context.Background())

			Convey("Then each player keeps their best score", func() {
				So(err, ShouldBeNil)
				So(board.TotalPlayers, ShouldEqual, 2)
				So(board.Leaderboard, ShouldResemble, []model.Entry{
					{Rank: 1, Player: bob, Score: "80", PlayTime: "20"},
					{Rank: 2, Player: alice, Score: "50", PlayTime: "10"},
				})
			})

			Convey("And the source is asked for the configured schema and publisher", func() {
				So(src.schemaID, ShouldEqual, svc.SchemaID())
				So(src.publisher, ShouldEqual, publisher)
			})
		})

		Convey("When the source holds nothing", func() {
			src.set(nil)
			board, err := svc.Leaderboard(context.Background())

			Convey("Then the board is empty", func() {
				So(err, ShouldBeNil)
				So(board.TotalPlayers, ShouldEqual, 0)
				So(board.Leaderboard, ShouldNotBeNil)
				So(board.Leaderboard, ShouldBeEmpty)
			})
		})

		Convey("When a record is malformed", func() {
			src.set([][]model.Field{fields(alice, 1, 1), {{Name: "", Value: model.Raw("x")}}})
			_, err := svc.Leaderboard(context.Background())

			Convey("Then the whole read fails", func() {
				So(errors.Is(err, normalize.ErrMalformedRecord), ShouldBeTrue)
			})
		})

		Convey("When the source fails", func() {
			src.err = errors.New("timeout")
			_, err := svc.Leaderboard(context.Background())
			So(err, ShouldEqual, src.err)
		})
	})

	Convey("Given a service missing collaborators", t, func() {
		_, err := service.New(schema.MustParse(schema.PlayerScore)).Records(context.Background())
		So(err, ShouldEqual, service.ErrNoSource)

		_, err = service.New(schema.MustParse(schema.PlayerScore), service.WithSource(&fakeSource{})).Records(context.Background())
		So(err, ShouldEqual, service.ErrNoPublisher)
	})
}

func TestService_EnsureSchema(t *testing.T) {
	Convey("Given a registrar", t, func() {
		reg := &fakeRegistrar{}
		svc := service.New(schema.MustParse(schema.PlayerScore),
			service.WithRegistrar(reg),
			service.WithReceiptTimeout(time.Second),
		)

		Convey("When the schema is already registered", func() {
			err := svc.EnsureSchema(context.Background())

			Convey("Then no receipt is awaited", func() {
				So(err, ShouldBeNil)
				So(reg.registered, ShouldResemble, []string{schema.PlayerScoreName + "|" + schema.PlayerScore})
				So(reg.waited, ShouldBeEmpty)
			})
		})

		Convey("When a registration is sent", func() {
			reg.hash = "0xfeed"
			err := svc.EnsureSchema(context.Background())

			Convey("Then its receipt is awaited", func() {
				So(err, ShouldBeNil)
				So(reg.waited, ShouldResemble, []string{"0xfeed"})
			})
		})

		Convey("When the registration reverts", func() {
			reg.hash = "0xfeed"
			reg.receiptErr = chain.ErrReverted
			err := svc.EnsureSchema(context.Background())
			So(errors.Is(err, chain.ErrReverted), ShouldBeTrue)
		})

		Convey("When registration fails", func() {
			reg.err = errors.New("nope")
			err := svc.EnsureSchema(context.Background())
			So(errors.Is(err, reg.err), ShouldBeTrue)
		})
	})

	Convey("Given no registrar", t, func() {
		err := service.New(schema.MustParse(schema.PlayerScore)).EnsureSchema(context.Background())
		So(err, ShouldEqual, service.ErrNoRegistrar)
	})
}

func TestNewStreamID(t *testing.T) {
	Convey("Given generated stream ids", t, func() {
		a, b := service.NewStreamID(), service.NewStreamID()

		Convey("Then they carry the player prefix and differ", func() {
			So(string(a[:7]), ShouldEqual, "player-")
			So(a, ShouldNotEqual, b)
			So(a[23:], ShouldResemble, make([]byte, 9))
		})
	})
}
