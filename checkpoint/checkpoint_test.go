package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liqsim/barsim/accounting"
	"github.com/liqsim/barsim/types"
)

func TestCheckpointRoundTrip(t *testing.T) {
	acct := accounting.NewAccountState(decimal.NewFromInt(1000))
	acct.ApplyFill(types.Fill{Symbol: "AAPL", Side: types.Buy, Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(100), Timestamp: time.Now()}, accounting.ApplyFillOptions{})

	chk := Create(State{
		BacktestID:       "bt-1",
		ConfigHash:       "hash123",
		Account:          acct,
		PeakEquity:       decimal.NewFromInt(1000),
		DailyStartEquity: decimal.NewFromInt(1000),
		RNGState:         42,
	})

	path := filepath.Join(t.TempDir(), "chk.bin")
	require.NoError(t, chk.Save(path))

	loaded, err := Load(path, "hash123")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, loaded.SchemaVersion())

	state, err := loaded.Restore()
	require.NoError(t, err)
	assert.True(t, state.Account.Cash.Equal(acct.Cash))
	assert.True(t, state.PeakEquity.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, uint64(42), state.RNGState)
}

func TestCheckpointConfigHashMismatch(t *testing.T) {
	acct := accounting.NewAccountState(decimal.NewFromInt(1000))
	chk := Create(State{BacktestID: "bt-1", ConfigHash: "hash123", Account: acct})
	path := filepath.Join(t.TempDir(), "chk.bin")
	require.NoError(t, chk.Save(path))

	_, err := Load(path, "other")
	assert.ErrorIs(t, err, ErrConfigHashMismatch)
}

func TestCheckpointRejectsLegacyPickle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.pkl")
	require.NoError(t, os.WriteFile(path, []byte{0x80, 0x04, 0x95, 0x00}, 0o644))
	_, err := Load(path, "")
	assert.ErrorIs(t, err, ErrLegacyFormat)
}

func TestCheckpointRejectsCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupted.bin")
	body := append([]byte{}, magic...)
	body = append(body, []byte{0x82, 0xa3, 'f', 'o'}...)
	require.NoError(t, os.WriteFile(path, body, 0o644))
	_, err := Load(path, "")
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestCheckpointRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nomagic.bin")
	require.NoError(t, os.WriteFile(path, []byte("not-a-checkpoint"), 0o644))
	_, err := Load(path, "")
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestCheckpointDecimalPrecisionPreserved(t *testing.T) {
	precise := decimal.RequireFromString("123456.78901234567890")
	acct := accounting.NewAccountState(precise)
	chk := Create(State{BacktestID: "bt-1", ConfigHash: "h", Account: acct})
	path := filepath.Join(t.TempDir(), "chk.bin")
	require.NoError(t, chk.Save(path))

	loaded, err := Load(path, "")
	require.NoError(t, err)
	state, err := loaded.Restore()
	require.NoError(t, err)
	assert.Equal(t, precise.String(), state.Account.Cash.String())
}

func TestCheckpointSchemaVersionPresent(t *testing.T) {
	acct := accounting.NewAccountState(decimal.NewFromInt(1000))
	chk := Create(State{BacktestID: "bt-1", ConfigHash: "h", Account: acct})
	assert.Equal(t, SchemaVersion, chk.SchemaVersion())
}
