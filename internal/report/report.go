// Package report runs fixed-depth benchmark searches and exports the results
// as Parquet.
package report

import (
	"context"
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/newton/internal/board"
	"github.com/hailam/newton/internal/engine"
)

// BenchRow is one benchmarked position.
type BenchRow struct {
	FEN      string `parquet:"name=fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	Depth    int32  `parquet:"name=depth, type=INT32"`
	Score    int32  `parquet:"name=score, type=INT32"`
	Nodes    int64  `parquet:"name=nodes, type=INT64"`
	TimeMs   int64  `parquet:"name=time_ms, type=INT64"`
	BestMove string `parquet:"name=best_move, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Bench searches every FEN to depth on up to workers goroutines, each with its
// own engine, and sends one row per position to rows. Rows arrive in
// completion order. rows is not closed.
// A malformed FEN fails the whole suite before any search starts.
func Bench(ctx context.Context, fens []string, depth, workers int, rows chan<- BenchRow) error {
	positions := make([]*board.Position, len(fens))
	for i, fen := range fens {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return fmt.Errorf("bench position %d %q: %w", i+1, fen, err)
		}
		positions[i] = pos
	}

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for _, pos := range positions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			eng := engine.NewEngine(nil)
			eng.SetPosition(pos)
			res := eng.Search(ctx, engine.SearchLimits{Depth: depth})

			row := BenchRow{
				FEN:      res.FEN,
				Depth:    int32(res.Depth),
				Score:    int32(res.Score),
				Nodes:    int64(res.Nodes),
				TimeMs:   res.Time.Milliseconds(),
				BestMove: res.BestMove.String(),
			}
			select {
			case rows <- row:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

// Write drains rows into a Snappy-compressed Parquet file at path.
func Write(path string, rows <-chan BenchRow, parallel int64) error {
	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(BenchRow), parallel)
	if err != nil {
		fileWriter.Close()
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for row := range rows {
		if err := parquetWriter.Write(row); err != nil {
			fileWriter.Close()
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		fileWriter.Close()
		return err
	}
	return fileWriter.Close()
}

// Read loads every row of the Parquet file at path.
func Read(path string, parallel int64) ([]BenchRow, error) {
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(BenchRow), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	rows := make([]BenchRow, 0, num)
	batchSize := 1024
	for offset := 0; offset < num; offset += batchSize {
		if remain := num - offset; remain < batchSize {
			batchSize = remain
		}
		batch := make([]BenchRow, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}
