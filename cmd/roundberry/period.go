package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/blockberries/roundberry/config"
	"github.com/blockberries/roundberry/logging"
	"github.com/blockberries/roundberry/pkg/chain"
	"github.com/blockberries/roundberry/pkg/metrics"
	"github.com/blockberries/roundberry/pkg/payload"
	"github.com/blockberries/roundberry/pkg/period"
	"github.com/blockberries/roundberry/pkg/round"
)

// DemoValueTxType is the payload tag used by the scenario runner.
const DemoValueTxType = "demo/value"

// demoValuePayload is the payload variant the scenario runner collects.
type demoValuePayload struct {
	payload.Base
	Value string
}

func (p demoValuePayload) TransactionType() string { return DemoValueTxType }
func (p demoValuePayload) Fields() map[string]any  { return map[string]any{"value": p.Value} }

func init() {
	payload.RegisterPayload(DemoValueTxType, func(sender, id string, fields map[string]any) (payload.Payload, error) {
		value, ok := fields["value"].(string)
		if !ok {
			return nil, fmt.Errorf("missing value field")
		}
		return demoValuePayload{Base: payload.NewBase(sender, id), Value: value}, nil
	})
}

var scenarioFile string

var periodCmd = &cobra.Command{
	Use:   "period",
	Short: "Run a period from a scenario file",
	Long: `Drive one period of the demo application from a TOML scenario file
describing the blocks and transactions the engine would deliver.

The demo application runs a single collect-same round over the
configured participants and finishes once a quorum agrees on a value.

Example scenario file:

  [[blocks]]
  height = 1
  timestamp = 2024-01-01T00:00:00Z

    [[blocks.txs]]
    sender = "0xaaaa"
    value = "x"

Example:
  roundberry period --config config.toml --scenario scenario.toml`,
	RunE: runPeriod,
}

func init() {
	periodCmd.Flags().StringVar(&scenarioFile, "scenario", "scenario.toml", "scenario file path")
}

// scenario is the TOML shape of a scripted engine block sequence.
type scenario struct {
	Blocks []scenarioBlock `toml:"blocks"`
}

type scenarioBlock struct {
	Height    int64        `toml:"height"`
	Timestamp time.Time    `toml:"timestamp"`
	Proposer  string       `toml:"proposer"`
	Txs       []scenarioTx `toml:"txs"`
}

type scenarioTx struct {
	Sender string `toml:"sender"`
	Value  string `toml:"value"`
}

// demoAppSpec wires a single collect-same round over the demo payload.
// Any event timeout named TIMEOUT in the config restarts the round.
func demoAppSpec(timeouts map[string]time.Duration) period.AppSpec {
	spec := period.AppSpec{
		InitialRoundID: "collect_value",
		Rounds: map[string]period.RoundConstructor{
			"collect_value": func(state round.BasePeriodState, params round.ConsensusParams) round.Round {
				return round.NewCollectSameUntilThresholdRound("collect_value", DemoValueTxType, state, params, "most_voted", "")
			},
		},
		Transitions: map[string]map[round.Event]string{
			"collect_value": {
				round.EventDone:    "finished",
				round.EventTimeout: "collect_value",
			},
		},
		EventToTimeout: make(map[round.Event]time.Duration, len(timeouts)),
		FinalStates:    []string{"finished"},
	}
	for name, d := range timeouts {
		spec.EventToTimeout[round.Event(name)] = d
	}
	return spec
}

func runPeriod(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(cfg.Period.Participants) == 0 {
		return fmt.Errorf("config names no participants; run 'roundberry init --participants ...' first")
	}

	logger := createLogger(cfg.Logging)

	data, err := os.ReadFile(scenarioFile)
	if err != nil {
		return fmt.Errorf("reading scenario file: %w", err)
	}
	var sc scenario
	if err := toml.Unmarshal(data, &sc); err != nil {
		return fmt.Errorf("parsing scenario file: %w", err)
	}

	var m metrics.Metrics
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheusMetrics(cfg.Metrics.Namespace)
		go func() {
			handler := prom.Handler().(http.Handler)
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, handler); err != nil {
				logger.Error("metrics server stopped", logging.Error(err))
			}
		}()
		m = prom
	}

	state, err := round.NewBasePeriodState(cfg.Period.Participants)
	if err != nil {
		return fmt.Errorf("building period state: %w", err)
	}

	app, err := period.NewAbciApp(period.AbciAppConfig{
		Spec:    demoAppSpec(cfg.Period.EventTimeoutDurations()),
		State:   state,
		Params:  round.ConsensusParams{MaxParticipants: cfg.Period.MaxParticipants},
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		return fmt.Errorf("creating abci app: %w", err)
	}

	p, err := period.NewPeriod(period.PeriodConfig{
		App:      app,
		LedgerID: cfg.Node.ChainID,
		Logger:   logger,
		Metrics:  m,
	})
	if err != nil {
		return fmt.Errorf("creating period: %w", err)
	}
	if err := p.Setup(); err != nil {
		return fmt.Errorf("setting up period: %w", err)
	}

	logger.Info("running scenario",
		logging.ChainID(cfg.Node.ChainID),
		logging.Count(len(sc.Blocks)))

	for _, b := range sc.Blocks {
		if p.IsFinished() {
			logger.Info("period finished, remaining blocks skipped",
				logging.Height(b.Height))
			break
		}
		header := chain.Header{Height: b.Height, Timestamp: b.Timestamp, Proposer: b.Proposer}
		if err := p.BeginBlock(header); err != nil {
			return fmt.Errorf("begin_block at height %d: %w", b.Height, err)
		}
		for _, tx := range b.Txs {
			t := payload.NewTransaction(
				demoValuePayload{Base: payload.NewBase(tx.Sender, ""), Value: tx.Value}, "")
			if err := p.DeliverTransaction(t); err != nil {
				// Invalid transactions are the engine's to reject; in a
				// scripted run we log and move on.
				logger.Warn("transaction rejected",
					logging.Height(b.Height), logging.Sender(tx.Sender), logging.Error(err))
			}
		}
		if err := p.EndBlock(); err != nil {
			return fmt.Errorf("end_block at height %d: %w", b.Height, err)
		}
		if err := p.Commit(); err != nil {
			return fmt.Errorf("commit at height %d: %w", b.Height, err)
		}
	}

	fmt.Printf("Scenario complete\n")
	fmt.Printf("  Height:     %d\n", p.Height())
	fmt.Printf("  Finished:   %v\n", p.IsFinished())
	fmt.Printf("  Last round: %s\n", p.App().LastRoundID())
	if result, ok := p.App().LatestResult(); ok {
		if mostVoted, ok := result.Get("most_voted"); ok {
			fmt.Printf("  Agreed on:  %v\n", mostVoted)
		}
	}

	return nil
}
