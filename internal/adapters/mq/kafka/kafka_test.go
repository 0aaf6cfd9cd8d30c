package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/scorestream/internal/domain/model"
)

func TestSink(t *testing.T) {
	Convey("Given a kafka sink over a mock producer", t, func() {
		cfg := mocks.NewTestConfig()
		cfg.Producer.Return.Successes = true
		producer := mocks.NewSyncProducer(t, cfg)
		sink, err := NewSinkWithProducer(producer, "scores")
		So(err, ShouldBeNil)
		seen := time.UnixMilli(1700000000000).UTC()
		o := model.Observation{
			Record:    model.Record{Player: "0xabc", Score: "123456789012345678901234", PlayTime: "5"},
			Publisher: "0xabc",
			SchemaID:  "0x01",
			SeenAt:    seen,
		}

		Convey("When emitting an observation", func() {
			producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
				var env Envelope
				if err := json.Unmarshal(val, &env); err != nil {
					return err
				}
				if env.Type != EnvelopeType || env.TS != seen.UnixMilli() {
					return errors.New("unexpected envelope header")
				}
				var got model.Observation
				if err := json.Unmarshal(env.Data, &got); err != nil {
					return err
				}
				if got.Record.Score != "123456789012345678901234" {
					return errors.New("score lost precision")
				}
				return nil
			})
			err := sink.Emit(context.Background(), o)

			Convey("Then the envelope should carry the observation", func() {
				So(err, ShouldBeNil)
				So(sink.Close(), ShouldBeNil)
			})
		})

		Convey("When the broker rejects the message", func() {
			producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
			err := sink.Emit(context.Background(), o)

			Convey("Then the error should be wrapped", func() {
				So(errors.Is(err, sarama.ErrOutOfBrokers), ShouldBeTrue)
				So(sink.Close(), ShouldBeNil)
			})
		})

		Convey("When the context is already done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := sink.Emit(ctx, o)

			Convey("Then nothing should be sent", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(sink.Close(), ShouldBeNil)
			})
		})

		Convey("Then the sink should report its name", func() {
			So(sink.Name(), ShouldEqual, "kafka")
			So(sink.Close(), ShouldBeNil)
		})
	})
}

func TestConstructors(t *testing.T) {
	Convey("Given sink constructor inputs", t, func() {
		Convey("When the topic is blank", func() {
			_, err := NewSinkWithProducer(nil, "  ")
			So(errors.Is(err, ErrNoTopic), ShouldBeTrue)
		})

		Convey("When no brokers are listed", func() {
			_, err := NewSink(" , ", "scores")
			So(errors.Is(err, ErrNoBrokers), ShouldBeTrue)
		})

		Convey("When splitting a broker list", func() {
			So(SplitBrokers("a:9092, b:9092,,"), ShouldResemble, []string{"a:9092", "b:9092"})
			So(SplitBrokers(""), ShouldBeNil)
		})
	})
}
