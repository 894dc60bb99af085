package bootstrap

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/cache"
	"tillpoint/internal/config"
	"tillpoint/internal/store/memory"
	"tillpoint/internal/store/sqlite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", "warn")
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"msg":"shown"`)
	require.Contains(t, out, `"k":"v"`)

	buf.Reset()
	NewLogger(&buf, "text", "nonsense").Info("plain")
	require.True(t, strings.Contains(buf.String(), "msg=plain"))
}

func TestOpenRepositoryDrivers(t *testing.T) {
	ctx := context.Background()

	repo, err := OpenRepository(ctx, config.Config{StoreDriver: config.DriverMemory}, discardLogger())
	require.NoError(t, err)
	require.IsType(t, &memory.Store{}, repo)

	path := filepath.Join(t.TempDir(), "till.db")
	repo, err = OpenRepository(ctx, config.Config{StoreDriver: config.DriverSQLite, SQLitePath: path}, discardLogger())
	require.NoError(t, err)
	require.IsType(t, &sqlite.Store{}, repo)
	require.NoError(t, repo.Close())

	_, err = OpenRepository(ctx, config.Config{StoreDriver: "derby"}, discardLogger())
	require.Error(t, err)
}

func TestOpenParkedSalesFallsBackToMemory(t *testing.T) {
	ctx := context.Background()

	parked, closeFn := OpenParkedSales(ctx, config.Config{}, discardLogger())
	require.IsType(t, &cache.MemoryParkedSales{}, parked)
	require.NoError(t, closeFn())

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	parked, closeFn = OpenParkedSales(ctx, config.Config{RedisAddr: addr}, discardLogger())
	require.IsType(t, &cache.MemoryParkedSales{}, parked)
	require.NoError(t, closeFn())
}

func TestOpenParkedSalesUsesRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	parked, closeFn := OpenParkedSales(context.Background(), config.Config{RedisAddr: mr.Addr()}, discardLogger())
	t.Cleanup(func() { _ = closeFn() })
	require.IsType(t, &cache.RedisParkedSales{}, parked)
}
