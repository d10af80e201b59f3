// Package history builds a columnar per-epoch view of a run for
// analysis. Each row is one epoch; columns carry supply and initiative
// aggregates, suitable for export to Arrow IPC and downstream tooling.
package history

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/lighthouse-gov/signals-sim/internal/models"
)

// Schema is the column layout of an epoch table.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "epoch", Type: arrow.PrimitiveTypes.Int64},
	{Name: "total_supply", Type: arrow.PrimitiveTypes.Float64},
	{Name: "circulating_supply", Type: arrow.PrimitiveTypes.Float64},
	{Name: "locked_supply", Type: arrow.PrimitiveTypes.Float64},
	{Name: "active_initiatives", Type: arrow.PrimitiveTypes.Int64},
	{Name: "accepted_initiatives", Type: arrow.PrimitiveTypes.Int64},
	{Name: "expired_initiatives", Type: arrow.PrimitiveTypes.Int64},
	{Name: "active_locks", Type: arrow.PrimitiveTypes.Int64},
	{Name: "total_balance", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// Build converts a run history into an Arrow record with one row per
// epoch. The caller owns the returned record and must Release it.
func Build(history []*models.State) arrow.Record {
	builder := array.NewRecordBuilder(memory.DefaultAllocator, Schema)
	defer builder.Release()

	epochs := builder.Field(0).(*array.Int64Builder)
	totalSupply := builder.Field(1).(*array.Float64Builder)
	circulating := builder.Field(2).(*array.Float64Builder)
	locked := builder.Field(3).(*array.Float64Builder)
	active := builder.Field(4).(*array.Int64Builder)
	accepted := builder.Field(5).(*array.Int64Builder)
	expired := builder.Field(6).(*array.Int64Builder)
	lockCount := builder.Field(7).(*array.Int64Builder)
	totalBalance := builder.Field(8).(*array.Float64Builder)

	for _, state := range history {
		epochs.Append(int64(state.CurrentEpoch))
		totalSupply.Append(state.TotalSupply)
		circulating.Append(state.CirculatingSupply)
		locked.Append(state.LockedSupply())
		active.Append(int64(len(state.ActiveInitiativeIDs())))
		accepted.Append(int64(len(state.Accepted)))
		expired.Append(int64(len(state.Expired)))
		lockCount.Append(int64(len(state.Locks)))

		var sum float64
		for _, id := range state.UserIDs() {
			sum += state.Balances[id]
		}
		totalBalance.Append(sum)
	}

	return builder.NewRecord()
}

// WriteIPC writes the epoch table to w in Arrow IPC file format. The
// file format needs a seekable destination for its footer.
func WriteIPC(w io.WriteSeeker, record arrow.Record) error {
	writer, err := ipc.NewFileWriter(w, ipc.WithSchema(record.Schema()))
	if err != nil {
		return fmt.Errorf("failed to create IPC writer: %w", err)
	}
	if err := writer.Write(record); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	return writer.Close()
}
