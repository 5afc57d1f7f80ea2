// Package checkpoint implements a canonical, self-describing binary
// checkpoint format for pausing and resuming a simulation run: a magic
// prefix, an explicit schema version, a config hash for drift detection,
// and a msgpack-encoded payload. This replaces the two incompatible
// formats (ad-hoc pickle, informal msgpack) the reference implementation
// accreted, in favor of one canonical encoding.
package checkpoint

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/liqsim/barsim/accounting"
	"github.com/liqsim/barsim/brackets"
	"github.com/liqsim/barsim/types"
)

// SchemaVersion is bumped whenever the payload struct shape changes in a
// backward-incompatible way.
const SchemaVersion = 1

// magic identifies a barsim checkpoint file and rejects legacy pickle
// files (which start with the pickle protocol-2+ magic byte 0x80) before
// attempting to decode them as msgpack.
var magic = []byte("BARSIMCK")

var pickleMagic = byte(0x80)

// ErrBadMagic is returned when a file does not start with the barsim
// checkpoint magic prefix.
var ErrBadMagic = errors.New("checkpoint: not a barsim checkpoint file")

// ErrLegacyFormat is returned when a file looks like a legacy pickle
// checkpoint.
var ErrLegacyFormat = errors.New("checkpoint: legacy pickle format is not supported")

// ErrCorrupted is returned when the msgpack payload fails to decode.
var ErrCorrupted = errors.New("checkpoint: failed to decode payload")

// ErrSchemaMismatch is returned when a checkpoint's schema version is
// newer than this build understands.
var ErrSchemaMismatch = errors.New("checkpoint: schema version mismatch")

// ErrConfigHashMismatch is returned when a checkpoint was produced under
// a different configuration than the one supplied at load time.
var ErrConfigHashMismatch = errors.New("checkpoint: config hash mismatch")

type lotSnapshot struct {
	Quantity   string    `msgpack:"quantity"`
	EntryPrice string    `msgpack:"entry_price"`
	EntryTime  time.Time `msgpack:"entry_time"`
}

type positionSnapshot struct {
	Lots        []lotSnapshot `msgpack:"lots"`
	RealizedPnL string        `msgpack:"realized_pnl"`
}

type settlementSnapshot struct {
	Amount      string    `msgpack:"amount"`
	ReleaseTime time.Time `msgpack:"release_time"`
}

type accountSnapshot struct {
	Cash               string                      `msgpack:"cash"`
	UnsettledCash      string                      `msgpack:"unsettled_cash"`
	Positions          map[string]positionSnapshot `msgpack:"positions"`
	PositionOrder      []string                    `msgpack:"position_order"`
	SettlementQueue    []settlementSnapshot        `msgpack:"settlement_queue"`
	DayTradesRemaining *int                        `msgpack:"day_trades_remaining"`
	AccountCurrency    string                      `msgpack:"account_currency"`
	LastSwapTime       *time.Time                  `msgpack:"last_swap_time"`
}

type orderSnapshot struct {
	ClientOrderID string     `msgpack:"client_order_id"`
	Symbol        string     `msgpack:"symbol"`
	Side          string     `msgpack:"side"`
	OrderType     string     `msgpack:"order_type"`
	Quantity      string     `msgpack:"quantity"`
	LimitPrice    *string    `msgpack:"limit_price"`
	StopPrice     *string    `msgpack:"stop_price"`
	TimeInForce   string     `msgpack:"time_in_force"`
	Timestamp     time.Time  `msgpack:"timestamp"`
}

type bracketSnapshot struct {
	ParentID   string         `msgpack:"parent_id"`
	StopLoss   *orderSnapshot `msgpack:"stop_loss"`
	TakeProfit *orderSnapshot `msgpack:"take_profit"`
}

// payload is the msgpack-encoded body of a checkpoint file.
type payload struct {
	SchemaVersion     int               `msgpack:"schema_version"`
	BacktestID        string            `msgpack:"backtest_id"`
	ConfigHash        string            `msgpack:"config_hash"`
	CreatedAt         time.Time         `msgpack:"created_at"`
	Account           accountSnapshot   `msgpack:"account"`
	PeakEquity        string            `msgpack:"peak_equity"`
	DailyStartEquity  string            `msgpack:"daily_start_equity"`
	CurrentDay        *time.Time        `msgpack:"current_day"`
	KillSwitchEngaged bool              `msgpack:"kill_switch_engaged"`
	ActiveBrackets    []bracketSnapshot `msgpack:"active_brackets"`
	RNGState          uint64            `msgpack:"rng_state"`
}

// SimulationCheckpoint is a decoded, in-memory checkpoint, ready to be
// restored into a running simulation or written back to disk.
type SimulationCheckpoint struct {
	payload payload
}

// State is the set of runtime fields captured in a checkpoint, in their
// native (non-serialized) form.
type State struct {
	BacktestID        string
	ConfigHash        string
	Account           *accounting.AccountState
	PeakEquity        decimal.Decimal
	DailyStartEquity  decimal.Decimal
	CurrentDay        *time.Time
	KillSwitchEngaged bool
	ActiveBrackets    []brackets.BracketState
	RNGState          uint64
}

// Create builds a SimulationCheckpoint from the current runtime state.
func Create(state State) SimulationCheckpoint {
	return SimulationCheckpoint{payload: payload{
		SchemaVersion:     SchemaVersion,
		BacktestID:        state.BacktestID,
		ConfigHash:        state.ConfigHash,
		CreatedAt:         time.Now().UTC(),
		Account:           accountToSnapshot(state.Account),
		PeakEquity:        state.PeakEquity.String(),
		DailyStartEquity:  state.DailyStartEquity.String(),
		CurrentDay:        state.CurrentDay,
		KillSwitchEngaged: state.KillSwitchEngaged,
		ActiveBrackets:    bracketsToSnapshot(state.ActiveBrackets),
		RNGState:          state.RNGState,
	}}
}

// Restore decodes the checkpoint back into a State a simulator can resume
// from.
func (c SimulationCheckpoint) Restore() (State, error) {
	peak, err := decimal.NewFromString(c.payload.PeakEquity)
	if err != nil {
		return State{}, fmt.Errorf("checkpoint: bad peak_equity: %w", err)
	}
	dayStart, err := decimal.NewFromString(c.payload.DailyStartEquity)
	if err != nil {
		return State{}, fmt.Errorf("checkpoint: bad daily_start_equity: %w", err)
	}
	acct, err := snapshotToAccount(c.payload.Account)
	if err != nil {
		return State{}, err
	}
	return State{
		BacktestID:        c.payload.BacktestID,
		ConfigHash:        c.payload.ConfigHash,
		Account:           acct,
		PeakEquity:        peak,
		DailyStartEquity:  dayStart,
		CurrentDay:        c.payload.CurrentDay,
		KillSwitchEngaged: c.payload.KillSwitchEngaged,
		ActiveBrackets:    snapshotToBrackets(c.payload.ActiveBrackets),
		RNGState:          c.payload.RNGState,
	}, nil
}

// SchemaVersion reports the schema version this checkpoint was encoded with.
func (c SimulationCheckpoint) SchemaVersion() int { return c.payload.SchemaVersion }

// ConfigHash reports the config hash this checkpoint was encoded under.
func (c SimulationCheckpoint) ConfigHash() string { return c.payload.ConfigHash }

// Save writes the checkpoint to path as magic-prefixed msgpack.
func (c SimulationCheckpoint) Save(path string) error {
	body, err := msgpack.Marshal(c.payload)
	if err != nil {
		return fmt.Errorf("checkpoint: failed to encode payload: %w", err)
	}
	out := make([]byte, 0, len(magic)+len(body))
	out = append(out, magic...)
	out = append(out, body...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("checkpoint: failed to write %s: %w", path, err)
	}
	log.Info().Str("path", path).Str("backtest_id", c.payload.BacktestID).Msg("checkpoint saved")
	return nil
}

// Load reads and validates a checkpoint file from path. If
// expectedConfigHash is non-empty, the checkpoint's config hash must
// match it exactly, or ErrConfigHashMismatch is returned.
func Load(path string, expectedConfigHash string) (SimulationCheckpoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SimulationCheckpoint{}, fmt.Errorf("checkpoint: failed to read %s: %w", path, err)
	}

	if len(raw) > 0 && raw[0] == pickleMagic {
		return SimulationCheckpoint{}, ErrLegacyFormat
	}
	if len(raw) < len(magic) || !bytes.Equal(raw[:len(magic)], magic) {
		return SimulationCheckpoint{}, ErrBadMagic
	}

	var p payload
	if err := msgpack.Unmarshal(raw[len(magic):], &p); err != nil {
		return SimulationCheckpoint{}, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	if p.SchemaVersion > SchemaVersion {
		return SimulationCheckpoint{}, fmt.Errorf("%w: file is schema %d, this build understands up to %d",
			ErrSchemaMismatch, p.SchemaVersion, SchemaVersion)
	}
	if expectedConfigHash != "" && p.ConfigHash != expectedConfigHash {
		return SimulationCheckpoint{}, fmt.Errorf("%w: file was produced under config hash %q, expected %q",
			ErrConfigHashMismatch, p.ConfigHash, expectedConfigHash)
	}

	log.Info().Str("path", path).Str("backtest_id", p.BacktestID).Msg("checkpoint loaded")
	return SimulationCheckpoint{payload: p}, nil
}
