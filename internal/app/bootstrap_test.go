package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/okian/scorestream/internal/adapters/chain"
	service "github.com/okian/scorestream/internal/app"
	"github.com/okian/scorestream/internal/config"
	"github.com/okian/scorestream/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

// registeredNode reports every schema as registered.
type registeredNode struct {
	mu      sync.Mutex
	methods []string
}

func (n *registeredNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint64 `json:"id"`
		Method string `json:"method"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	n.mu.Lock()
	n.methods = append(n.methods, req.Method)
	n.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  "0x" + strings.Repeat("0", 63) + "1",
	})
}

func testConfig(rpcURL string) *config.Config {
	cfg := config.New()
	cfg.RPCURL = rpcURL
	cfg.StreamsContract = "0x6AB397FF662e42312c003175DCD76EfF69D048Fc"
	return cfg
}

func TestBootstrap(t *testing.T) {
	Convey("Given a node where the schema is registered", t, func() {
		node := &registeredNode{}
		srv := httptest.NewServer(node)
		defer srv.Close()
		ctx := context.Background()

		Convey("When bootstrapping a writer", func() {
			cfg := testConfig(srv.URL)
			cfg.PrivateKey = "0x0000000000000000000000000000000000000000000000000000000000000001"
			svc, err := service.Bootstrap(ctx, cfg)

			Convey("Then the signer is the publisher and registration is checked", func() {
				So(err, ShouldBeNil)
				So(svc.Publisher().Hex(), ShouldEqual, alice)
				So(svc.Account().Hex(), ShouldEqual, alice)
				So(svc.SchemaID(), ShouldEqual, schema.ComputeID(schema.PlayerScore))
				So(node.methods, ShouldResemble, []string{"eth_call"})
			})
		})

		Convey("When bootstrapping a reader", func() {
			cfg := testConfig(srv.URL)
			cfg.PublisherWallet = strings.ToLower(bob)
			svc, err := service.Bootstrap(ctx, cfg)

			Convey("Then the configured wallet is read and nothing is sent", func() {
				So(err, ShouldBeNil)
				So(svc.Publisher().Hex(), ShouldEqual, bob)
				So(svc.Account(), ShouldEqual, common.Address{})
				So(node.methods, ShouldBeEmpty)
			})
		})

		Convey("When registration is disabled", func() {
			cfg := testConfig(srv.URL)
			cfg.PrivateKey = "0000000000000000000000000000000000000000000000000000000000000001"
			cfg.RegisterSchema = false
			_, err := service.Bootstrap(ctx, cfg)
			So(err, ShouldBeNil)
			So(node.methods, ShouldBeEmpty)
		})
	})

	Convey("Given invalid configuration", t, func() {
		ctx := context.Background()

		Convey("Then a bad schema is rejected", func() {
			cfg := testConfig("http://127.0.0.1:1")
			cfg.Schema = "string name"
			_, err := service.Bootstrap(ctx, cfg)
			So(err, ShouldNotBeNil)
		})

		Convey("Then a bad contract address is rejected", func() {
			cfg := testConfig("http://127.0.0.1:1")
			cfg.StreamsContract = "0x1234"
			_, err := service.Bootstrap(ctx, cfg)
			So(errors.Is(err, service.ErrInvalidAddress), ShouldBeTrue)
		})

		Convey("Then a bad private key is rejected", func() {
			cfg := testConfig("http://127.0.0.1:1")
			cfg.PrivateKey = "zz"
			_, err := service.Bootstrap(ctx, cfg)
			So(errors.Is(err, chain.ErrInvalidKey), ShouldBeTrue)
		})

		Convey("Then a bad publisher wallet is rejected", func() {
			cfg := testConfig("http://127.0.0.1:1")
			cfg.PublisherWallet = "bob"
			_, err := service.Bootstrap(ctx, cfg)
			So(errors.Is(err, service.ErrInvalidAddress), ShouldBeTrue)
		})
	})
}
